// Package api implements the authenticated client for the Eventor XML API.
//
// Every operation issues one GET (OwnOrganisationPersons issues two
// dependent ones), decodes the XML body through the schema package, and
// returns either a single entity or a lazy single-pass sequence over the
// decoded collection. Optional query parameters are omitted from requests
// when unset, because the service distinguishes absent from empty. Non-2xx
// responses surface as *StatusError, transport failures as wrapped errors,
// and malformed bodies as *schema.DecodeError.
package api
