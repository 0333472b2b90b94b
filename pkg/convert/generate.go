//go:generate gomarkdoc -e -f github -o README.md . --repository.url https://github.com/agentstation/harvester --repository.default-branch master --repository.path /pkg/convert

// Package convert maps DCAT dataset records to the local catalog model and
// back. ToCatalog normalizes dates, resolves the publisher and its owning
// organization slug, infers a license and a theme, and maps distributions
// to resources. ToDcat is the inverse mapping used when exporting.
package convert
