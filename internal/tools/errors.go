package tools

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/golovatskygroup/sonarqube-mcp/internal/sonar"
)

type category int

const (
	categoryConnection category = iota
	categoryHTTP
	categoryRequest
	categoryInternal
)

func (c category) String() string {
	switch c {
	case categoryConnection:
		return "connection"
	case categoryHTTP:
		return "http"
	case categoryRequest:
		return "request"
	default:
		return "internal"
	}
}

// failure is the tool-independent view of an error.
type failure struct {
	category category
	code     int
	reason   string
	message  string
}

var errNotObject = errors.New("unexpected response: expected a JSON object")

func classify(err error) failure {
	f := failure{category: categoryInternal, message: err.Error()}
	if se, ok := sonar.AsStatus(err); ok {
		f.category = categoryHTTP
		f.code = se.Code
		f.reason = se.Reason
		return f
	}
	switch {
	case sonar.IsConnection(err):
		f.category = categoryConnection
	case sonar.IsRequest(err):
		f.category = categoryRequest
	}
	return f
}

// wording holds the tool-specific texts used when rendering a failure.
type wording struct {
	accessDenied  string // 403
	unauthorized  string // 401
	requestPrefix string // connection and other request-layer failures
}

func (w wording) render(f failure) string {
	switch f.category {
	case categoryHTTP:
		switch f.code {
		case http.StatusForbidden:
			return w.accessDenied
		case http.StatusUnauthorized:
			return w.unauthorized
		}
		return fmt.Sprintf("HTTP error: %d - %s", f.code, f.reason)
	case categoryConnection, categoryRequest:
		return w.requestPrefix + ": " + f.message
	default:
		return f.message
	}
}

var (
	issuesWording = wording{
		accessDenied:  "🚫 Access denied. Token lacks permission to fetch issues.",
		unauthorized:  "🔐 Unauthorized. Invalid or expired token.",
		requestPrefix: "Request error",
	}
	projectsWording = wording{
		accessDenied:  "🚫 Access denied: Token doesn't have permission to list projects. Check roles.",
		unauthorized:  "🔐 Unauthorized: Invalid or expired token.",
		requestPrefix: "Failed to list projects",
	}
	metricsWording = wording{
		accessDenied:  "🚫 Access denied: Token lacks permission to fetch metrics.",
		unauthorized:  "🔐 Unauthorized: Invalid token.",
		requestPrefix: "Metrics fetch failed",
	}
)

// healthText renders the health check's string form of a failure.
func healthText(f failure, baseURL string) string {
	switch f.category {
	case categoryConnection:
		return fmt.Sprintf("❌ Connection error: Unable to reach SonarQube at %s", baseURL)
	case categoryHTTP:
		return fmt.Sprintf("❌ HTTP error: %d - %s", f.code, f.reason)
	default:
		return fmt.Sprintf("❌ Unexpected error: %s", f.message)
	}
}
