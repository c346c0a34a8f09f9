// Package model contains the domain entities stored in Postgres and returned
// by the API, together with their status enums. No business logic here.
package model
