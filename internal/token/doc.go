// Package token mints short-lived per-call bearer credentials for
// service-to-service requests.
package token
