// Package capture runs one recording of one source and owns the release of
// that source's lock marker.
//
// A job resolves its output path under <output_dir>/<id>/, runs the executor
// (ffmpeg by default) as a blocking subprocess with its console output
// discarded, pauses briefly after a clean exit, and always releases the
// marker. Failures are logged and reported in the Result; they never reach the
// dispatcher and a job never restarts itself. The next poll cycle picks the
// source up again once its marker is gone.
package capture
