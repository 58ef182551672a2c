// Package testutil holds shared test doubles and fixtures: a capturing
// logger, testify mocks of the API services, and sample analysis
// documents for index builds.
package testutil
