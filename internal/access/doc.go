// Package access resolves effective permissions for reports and dashboards.
//
// Functions here are pure: callers load the resource, the caller's group ids and the
// grants that match the caller, and access decides. Missing data always degrades to
// the most restrictive answer instead of an error.
package access
