package proofing

import (
	"errors"
	"fmt"

	"github.com/kokukuma/mdoc-issuance/evidence"
)

var (
	// ErrInvalidAnswer is matched by every InvalidAnswerError.
	ErrInvalidAnswer = errors.New("proofing: invalid answer")

	// ErrGraphConfiguration is matched by every GraphConfigurationError.
	ErrGraphConfiguration = errors.New("proofing: invalid graph configuration")

	// ErrResponseKind is matched by every ResponseKindError.
	ErrResponseKind = errors.New("proofing: unexpected response kind")
)

// InvalidAnswerError is returned when a response picks a branch the node
// never offered. The peer violated the protocol; the session cannot go on.
type InvalidAnswerError struct {
	NodeID string
	Answer string
}

func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("proofing: node %q: invalid answer %q", e.NodeID, e.Answer)
}

func (e *InvalidAnswerError) Is(target error) bool {
	return target == ErrInvalidAnswer
}

// GraphConfigurationError is returned by Create for a graph that cannot be
// built.
type GraphConfigurationError struct {
	Reason string
}

func (e *GraphConfigurationError) Error() string {
	return "proofing: invalid graph configuration: " + e.Reason
}

func (e *GraphConfigurationError) Is(target error) bool {
	return target == ErrGraphConfiguration
}

// ResponseKindError is returned when a node that branches on its response
// gets a response of the wrong kind.
type ResponseKindError struct {
	NodeID string
	Want   evidence.Kind
	Got    evidence.Kind
}

func (e *ResponseKindError) Error() string {
	return fmt.Sprintf("proofing: node %q expects a %s response, got %s", e.NodeID, e.Want, e.Got)
}

func (e *ResponseKindError) Is(target error) bool {
	return target == ErrResponseKind
}

// IsInvalidAnswer checks if an error is caused by an undeclared answer
func IsInvalidAnswer(err error) bool {
	var answerErr *InvalidAnswerError
	return errors.As(err, &answerErr)
}

// IsGraphConfigurationError checks if an error is caused by a bad graph definition
func IsGraphConfigurationError(err error) bool {
	var configErr *GraphConfigurationError
	return errors.As(err, &configErr)
}

func configurationError(format string, args ...interface{}) error {
	return &GraphConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

func kindOf(response evidence.Response) evidence.Kind {
	if response == nil {
		return "none"
	}
	return response.Kind()
}
