// Package crux is the Chrome UX Report API client.
//
// Client.FetchHistory posts a records:queryHistoryRecord request for one
// origin or page URL and one form factor, and flattens the weekly p75
// timeseries in the response into vitals.Sample values. Weeks with a null
// p75 (not enough field data that week) simply produce no sample.
//
// A 404 from the API means the origin or page has no field data at all;
// that is an empty result, not an error. Connectivity failures and
// malformed responses are errors and abort the report run before anything
// is persisted.
package crux
