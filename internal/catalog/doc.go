// Package catalog defines the production-tracking data model (series,
// episodes, clips, studio library assets) and its SQLite persistence.
package catalog
