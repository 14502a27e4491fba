// Package display renders user-facing output for the binmeta CLI.
//
// # Notices
//
// Notices are the transient messages a user sees while binmeta works on a
// vault: an invalid template path, an expander that failed, a rejected
// setting. They never block; the pipeline keeps going after emitting one.
//
//	notifier := display.NewWriterNotifier(os.Stderr)
//	notifier.Notify(display.Notice{
//	    Level:      display.LevelWarn,
//	    Title:      "Template file templates/meta.md is invalid",
//	    Suggestion: "Falling back to the built-in template",
//	})
//
// Components accept the Notifier interface so tests can capture notices
// with a Recorder.
//
// # Progress
//
// Bulk actions report one line per generated note:
//
//	progress := display.NewProgressIndicator(os.Stdout, "Generating metadata")
//	progress.Start(len(files))
//	for _, f := range files {
//	    progress.Step(f.Path)
//	}
//	progress.Complete("notes created")
//
// Colour is applied only when the writer is a terminal.
package display
