package errors

import (
	"context"
	stdErrors "errors"
	"regexp"
	"strings"
)

// Classified is the user-facing view of a failure.
type Classified struct {
	Kind    Code
	Message string
	Cause   string
}

// ClassifyOption tunes classification for the calling action.
type ClassifyOption func(*classifyConfig)

type classifyConfig struct {
	routeFinding bool
}

// RouteFinding enables the "no routes" rule. Only swap paths set it.
func RouteFinding() ClassifyOption {
	return func(c *classifyConfig) { c.routeFinding = true }
}

type rule struct {
	kind        Code
	markers     []string
	pattern     *regexp.Regexp
	routingOnly bool
}

func (r rule) matches(lowered string) bool {
	for _, marker := range r.markers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return r.pattern != nil && r.pattern.MatchString(lowered)
}

// Rules are evaluated in order and the first match wins.
var rules = []rule{
	{kind: CodeInsufficientFunds, markers: []string{"insufficient funds", "insufficient balance", "exceeds balance"}},
	{kind: CodeUserRejected, markers: []string{"user rejected", "user denied"}},
	{kind: CodeRouteNotFound, markers: []string{"no routes found", "no available quotes"}, routingOnly: true},
	// A bare 429 also occurs inside hashes and addresses, so it only counts
	// as an HTTP status.
	{kind: CodeRateLimited, markers: []string{"rate limit", "too many requests"}, pattern: regexp.MustCompile(`\b(?:status|http|code)[\s:=]*429\b`)},
	{kind: CodeTimeout, markers: []string{"timeout", "timed out", "deadline exceeded"}},
}

var userMessages = map[Code]string{
	CodeInsufficientFunds:   "Insufficient funds to complete the transaction, including gas.",
	CodeUserRejected:        "The request was rejected by the user.",
	CodeRouteNotFound:       "No route was found for this swap. Try a different token pair or amount.",
	CodeRateLimited:         "The upstream service is rate limiting requests. Please try again shortly.",
	CodeTimeout:             "The request timed out.",
	CodeValidationFailed:    "Some parameters are missing or invalid.",
	CodeResolutionFailed:    "Could not resolve the given name or token.",
	CodeSimulationFailed:    "The transaction would fail if submitted.",
	CodeSubmissionFailed:    "The transaction could not be submitted.",
	CodeConfirmationUnknown: "The transaction was submitted but its confirmation could not be observed.",
	CodeExecutionReverted:   "The transaction was mined but reverted.",
}

// Classify maps err onto the error taxonomy. Substring rules take priority
// over the code already carried by err so that a simulation failure caused
// by missing funds is reported as insufficient funds.
func Classify(err error, opts ...ClassifyOption) *Classified {
	if err == nil {
		return nil
	}
	var cfg classifyConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	raw := err.Error()
	// A submitted transaction whose receipt was not observed may still
	// succeed; its kind must survive the substring rules below.
	if coded, ok := From(err); ok && coded.Code() == CodeConfirmationUnknown {
		return &Classified{Kind: CodeConfirmationUnknown, Message: UserMessage(CodeConfirmationUnknown, ""), Cause: raw}
	}
	lowered := strings.ToLower(raw)
	for _, r := range rules {
		if r.routingOnly && !cfg.routeFinding {
			continue
		}
		if r.matches(lowered) {
			return &Classified{Kind: r.kind, Message: UserMessage(r.kind, raw), Cause: raw}
		}
	}
	if stdErrors.Is(err, context.DeadlineExceeded) {
		return &Classified{Kind: CodeTimeout, Message: UserMessage(CodeTimeout, raw), Cause: raw}
	}
	if coded, ok := From(err); ok && coded.Code() != CodeUnknown {
		return &Classified{Kind: coded.Code(), Message: UserMessage(coded.Code(), detailOf(coded)), Cause: raw}
	}
	return &Classified{Kind: CodeUnknown, Message: raw, Cause: raw}
}

// UserMessage returns the sentence shown for kind. detail is appended for
// kinds whose generic sentence alone would hide the actionable part.
func UserMessage(kind Code, detail string) string {
	msg, ok := userMessages[kind]
	if !ok {
		return detail
	}
	switch kind {
	case CodeValidationFailed, CodeResolutionFailed, CodeSimulationFailed, CodeSubmissionFailed:
		if detail != "" {
			return msg + " " + detail
		}
	}
	return msg
}

func detailOf(e *Error) string {
	detail := e.Message()
	if cause := e.Unwrap(); cause != nil {
		detail += ": " + cause.Error()
	}
	return detail
}
