package web

import (
	"errors"
	"net/http"

	"github.com/sabuysoft/wms-import/internal/importer"
)

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var (
		validation *importer.ValidationError
		notFound   *importer.NotFoundError
		noData     *importer.NoDataError
		fetch      *importer.FetchError
		commit     *importer.CommitError
		config     *importer.ConfigError
	)

	switch {
	case errors.As(err, &validation), errors.As(err, &noData):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &fetch):
		return http.StatusBadGateway
	case errors.As(err, &commit), errors.As(err, &config):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// clientMessage returns the text safe to hand to the client. Errors
// from the taxonomy carry curated messages; anything else gets a
// generic one, with the full error left to the log.
func clientMessage(err error) string {
	var (
		validation *importer.ValidationError
		notFound   *importer.NotFoundError
		noData     *importer.NoDataError
		fetch      *importer.FetchError
		commit     *importer.CommitError
		config     *importer.ConfigError
	)
	if errors.As(err, &validation) || errors.As(err, &notFound) ||
		errors.As(err, &noData) || errors.As(err, &fetch) ||
		errors.As(err, &commit) || errors.As(err, &config) {
		return err.Error()
	}
	return "internal error"
}
