// Package kyctools defines the verification tool pack exposed to the
// calling agent: case access, document analysis, registry search, and the
// combined legal-entity KYC assessment.
package kyctools
