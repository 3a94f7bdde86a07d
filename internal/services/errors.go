package services

import "errors"

// Failure classes of the ingestion and optimization pipeline. Handlers
// map these to user-facing remediation: a bad input document, a provider
// or network problem, and a local credential problem each read
// differently to the user.
var (
	// ErrInsufficientText marks native extraction output below the
	// minimum-content threshold; the caller escalates to OCR.
	ErrInsufficientText = errors.New("extracted text below minimum length")

	// ErrOCRFailed marks OCR output below the threshold, or a rendering
	// or recognition failure. Fatal for the current file.
	ErrOCRFailed = errors.New("ocr produced no usable text")

	// ErrNotAResume marks a document rejected by the admission gate.
	ErrNotAResume = errors.New("document rejected by classifier")

	// ErrUnparsableResponse marks a model response with no locatable or
	// valid JSON object.
	ErrUnparsableResponse = errors.New("no parsable JSON object in model response")

	// ErrProvider marks a transport or HTTP failure from the LLM call.
	ErrProvider = errors.New("provider request failed")

	// ErrCrypto marks a decryption or authentication failure, usually a
	// rotated or cleared device secret. Recoverable by re-entering the
	// credential.
	ErrCrypto = errors.New("credential decryption failed")
)
