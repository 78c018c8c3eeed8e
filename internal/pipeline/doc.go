// Package pipeline runs a scrape as a sequence of steps over one
// model.RunReport.
//
// The default scrape has three steps:
//  1. MetadataStep refreshes the stored game data when the feed version
//     changed.
//  2. SkinChangesStep runs the detector at most once per scrape interval
//     and stores the change map when it differs from the stored one.
//  3. DeployStep calls the deploy hook when either step asked for a
//     rebuild.
//
// Each step reads what earlier steps recorded in the report.
package pipeline
