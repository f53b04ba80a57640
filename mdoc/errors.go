package mdoc

import (
	"errors"
	"fmt"
)

type ErrNamespaceNotFound struct {
	NameSpace NameSpace
}

func (e ErrNamespaceNotFound) Error() string {
	return fmt.Sprintf("namespace: %s not found", e.NameSpace)
}

type ErrNamespaceDigestsNotFound struct {
	NameSpace NameSpace
}

func (e ErrNamespaceDigestsNotFound) Error() string {
	return fmt.Sprintf("digest: value digests of %s not found", e.NameSpace)
}

type ErrElementNotFound struct {
	NameSpace         NameSpace
	ElementIdentifier ElementIdentifier
}

func (e ErrElementNotFound) Error() string {
	return fmt.Sprintf("element: %s not found in namespace %s", e.ElementIdentifier, e.NameSpace)
}

type ErrDigestNotFound struct {
	NameSpace NameSpace
	DigestID  DigestID
}

func (e ErrDigestNotFound) Error() string {
	return fmt.Sprintf("digest: %s/%d not found", e.NameSpace, e.DigestID)
}

type ErrDigestMismatch struct {
	NameSpace NameSpace
	DigestID  DigestID
}

func (e ErrDigestMismatch) Error() string {
	return fmt.Sprintf("digest: %s/%d does not match the MSO", e.NameSpace, e.DigestID)
}

type ErrMissingHeaders struct{}

func (ErrMissingHeaders) Error() string { return "cose: missing unprotected headers" }

type ErrMissingProtectedHeader struct{}

func (ErrMissingProtectedHeader) Error() string { return "cose: missing protected header" }

type ErrMissingPayload struct{}

func (ErrMissingPayload) Error() string { return "cose: missing payload" }

type ErrInvalidTaggedContent struct {
	Cause error
}

func (e ErrInvalidTaggedContent) Error() string {
	return fmt.Sprintf("cose: invalid tagged content: %v", e.Cause)
}

func (e ErrInvalidTaggedContent) Unwrap() error { return e.Cause }

type ErrX5ChainIssue struct {
	Reason string
}

func (e ErrX5ChainIssue) Error() string { return "certificate: " + e.Reason }

type ErrInvalidKeyType struct {
	Reason string
}

func (e ErrInvalidKeyType) Error() string { return "certificate: invalid key: " + e.Reason }

type ErrDeviceKeyNotAvailable struct{}

func (ErrDeviceKeyNotAvailable) Error() string { return "device: device key not available" }

// IsNamespaceError checks if an error is related to namespace issues
func IsNamespaceError(err error) bool {
	var nsNotFoundErr ErrNamespaceNotFound
	var nsDigestsNotFoundErr ErrNamespaceDigestsNotFound
	return errors.As(err, &nsNotFoundErr) || errors.As(err, &nsDigestsNotFoundErr)
}

// IsElementError checks if an error is related to element issues
func IsElementError(err error) bool {
	var elemNotFoundErr ErrElementNotFound
	return errors.As(err, &elemNotFoundErr)
}

// IsDigestError checks if an error is related to digest issues
func IsDigestError(err error) bool {
	var digestNotFoundErr ErrDigestNotFound
	var digestMismatchErr ErrDigestMismatch
	return errors.As(err, &digestNotFoundErr) || errors.As(err, &digestMismatchErr)
}

// IsCOSEError checks if an error is related to COSE structure issues
func IsCOSEError(err error) bool {
	var missingHeadersErr ErrMissingHeaders
	var missingProtectedHeaderErr ErrMissingProtectedHeader
	var missingPayloadErr ErrMissingPayload
	var invalidTaggedContentErr ErrInvalidTaggedContent
	return errors.As(err, &missingHeadersErr) || errors.As(err, &missingProtectedHeaderErr) ||
		errors.As(err, &missingPayloadErr) || errors.As(err, &invalidTaggedContentErr)
}

// IsCertificateError checks if an error is related to certificate or key issues
func IsCertificateError(err error) bool {
	var keyTypeErr ErrInvalidKeyType
	var x5ChainErr ErrX5ChainIssue
	return errors.As(err, &keyTypeErr) || errors.As(err, &x5ChainErr)
}

// IsDeviceError checks if an error is related to device issues
func IsDeviceError(err error) bool {
	var deviceKeyNotAvailableErr ErrDeviceKeyNotAvailable
	return errors.As(err, &deviceKeyNotAvailableErr)
}
