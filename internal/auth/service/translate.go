package service

import (
	"authgate/internal/identity"
	dErrors "authgate/pkg/domain-errors"
)

// outcome describes how one provider failure code surfaces to the client.
type outcome struct {
	code  dErrors.Code
	field string
}

// registerOutcomes maps provider rejections of a registration attempt. All
// are client-correctable at submission time, hence bad_request.
var registerOutcomes = map[identity.FailureCode]outcome{
	identity.FailureEmailInUse:   {dErrors.CodeBadRequest, "email"},
	identity.FailureInvalidEmail: {dErrors.CodeBadRequest, "email"},
	identity.FailureWeakPassword: {dErrors.CodeBadRequest, "password"},
}

// authenticateOutcomes maps provider rejections of a sign-in attempt. These
// are credential mismatches, hence unauthorized. The field attribution tells
// the client which input to highlight without revealing more than the
// provider already did.
var authenticateOutcomes = map[identity.FailureCode]outcome{
	identity.FailureUserNotFound:  {dErrors.CodeUnauthorized, "email"},
	identity.FailureInvalidEmail:  {dErrors.CodeUnauthorized, "email"},
	identity.FailureWrongPassword: {dErrors.CodeUnauthorized, "password"},
}

func translateRegister(err error) error {
	return translate(err, registerOutcomes, dErrors.CodeBadRequest)
}

func translateAuthenticate(err error) error {
	return translate(err, authenticateOutcomes, dErrors.CodeUnauthorized)
}

// translateFederated handles federated sign-in failures. No table lookup: the
// gateway never saw a credential, so no field could be attributed. The
// provider's message survives for unmapped codes the same way the generic
// fall-through works elsewhere.
func translateFederated(err error) error {
	return translate(err, nil, dErrors.CodeUnauthorized)
}

// translateRevoke handles sign-out failures. Revocation is not an
// authentication decision, so there is no credential context to map against
// and everything surfaces as internal.
func translateRevoke(err error) error {
	return dErrors.Wrap(err, dErrors.CodeInternal, "session revoke failed")
}

// translate turns a provider failure into a domain error: mapped codes get a
// field and status from the table, unmapped ones fall through generic with
// the context's default code, and transport-level trouble is internal so the
// response writer suppresses the detail.
func translate(err error, table map[identity.FailureCode]outcome, fallback dErrors.Code) error {
	pe, ok := identity.AsProviderError(err)
	if !ok {
		return dErrors.Wrap(err, dErrors.CodeInternal, "identity provider call failed")
	}

	if pe.Code == identity.FailureUnavailable {
		return dErrors.Wrap(err, dErrors.CodeInternal, "identity provider unavailable")
	}

	if o, found := table[pe.Code]; found {
		return dErrors.Wrap(err, o.code, pe.Message).WithField(o.field)
	}

	return dErrors.Wrap(err, fallback, pe.Message)
}
