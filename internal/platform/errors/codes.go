// Package errors provides coded domain errors shared by the claims services.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Input errors
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeRequestTooLarge Code = "REQUEST_TOO_LARGE"

	// Account errors
	CodeEmployeeCodeRequired Code = "EMPLOYEE_CODE_REQUIRED"
	CodeEmployeeNameRequired Code = "EMPLOYEE_NAME_REQUIRED"
	CodePasswordRequired     Code = "PASSWORD_REQUIRED"
	CodePasswordTooShort     Code = "PASSWORD_TOO_SHORT"
	CodePasswordTooLong      Code = "PASSWORD_TOO_LONG"
	CodeEmployeeCodeTaken    Code = "EMPLOYEE_CODE_TAKEN"
	CodeInvalidCredentials   Code = "INVALID_CREDENTIALS"
	CodeUnauthenticated      Code = "UNAUTHENTICATED"
	CodeSessionExpired       Code = "SESSION_EXPIRED"
	CodeCrossOrigin          Code = "CROSS_ORIGIN"

	// Claim errors
	CodeClaimEmployeeMissing Code = "CLAIM_EMPLOYEE_MISSING"
	CodeClaimInvalidSection  Code = "CLAIM_INVALID_SECTION"

	// Draft and template errors
	CodeDraftDataMissing    Code = "DRAFT_DATA_MISSING"
	CodeTemplateNameMissing Code = "TEMPLATE_NAME_MISSING"
	CodeDraftNameTaken      Code = "DRAFT_NAME_TAKEN"
	CodeFilterInvalid       Code = "FILTER_INVALID"

	// Receipt errors
	CodeReceiptTextMissing Code = "RECEIPT_TEXT_MISSING"
	CodeMerchantMissing    Code = "MERCHANT_MISSING"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidInput,
		CodeEmployeeCodeRequired,
		CodeEmployeeNameRequired,
		CodePasswordRequired,
		CodePasswordTooShort,
		CodePasswordTooLong,
		CodeClaimEmployeeMissing,
		CodeClaimInvalidSection,
		CodeDraftDataMissing,
		CodeTemplateNameMissing,
		CodeFilterInvalid,
		CodeReceiptTextMissing,
		CodeMerchantMissing:
		return http.StatusBadRequest

	case CodeInvalidCredentials,
		CodeUnauthenticated,
		CodeSessionExpired:
		return http.StatusUnauthorized

	case CodeCrossOrigin:
		return http.StatusForbidden

	case CodeEmployeeCodeTaken,
		CodeDraftNameTaken:
		return http.StatusConflict

	case CodeRequestTooLarge:
		return http.StatusRequestEntityTooLarge

	case CodeNotFound:
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}
