// Package api handles incoming HTTP requests, request validation, and
// response formatting for the configuration server. It acts as an adapter
// between external clients and the internal services, translating HTTP
// concerns to hierarchy and configuration operations.
package api
