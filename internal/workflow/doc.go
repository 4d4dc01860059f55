// Package workflow sequences the engine calls behind each API operation.
//
// AnalyzeYouTube imports a video, waits (bounded) for the import task, and
// hands the resulting file to the transcriber without waiting for it. Status
// reports a task's state and, once it has succeeded, reads the transcript
// summary and runs the generator. Query forwards a tag filter expression
// verbatim. Generate runs the generator directly on a caller supplied summary.
//
// The Service resolves the importer and transcriber plugin instances when it
// is constructed; each call afterwards is stateless.
package workflow
