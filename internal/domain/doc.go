// Package domain contains the form-response model exported as documents.
// Keep this package free of transport (HTTP) and infrastructure (Redis/Chrome/Postgres) concerns.
package domain
