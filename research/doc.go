// Package research implements the orchestrator tying the three domain
// collectors and the experiment harness together: periodic validation runs,
// report generation on a timer and at shutdown, passthrough recording
// methods so producers talk to a single surface, and a research-complete
// notification when every hypothesis validates on the same run.
package research
