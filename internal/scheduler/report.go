package scheduler

// Failure records a course (or its exam) that did not complete the run.
type Failure struct {
	Course Course
	Reason FailureReason
	// ExamID is set for post-processing failures of an exam that was already stored.
	ExamID string
	// Detail carries the underlying error text for post-processing failures.
	Detail string
}

// Report accumulates the outcome of one run in placement order.
type Report struct {
	Exams    []ScheduledExam
	Failures []Failure
}

func (r *Report) recordExam(exam ScheduledExam) {
	r.Exams = append(r.Exams, exam)
}

// RecordFailure appends a failure entry. Post-processing collaborators use it for
// persistence and seating problems; it never removes an exam from the report.
func (r *Report) RecordFailure(f Failure) {
	r.Failures = append(r.Failures, f)
}

// Placed returns the number of scheduled exams.
func (r *Report) Placed() int {
	return len(r.Exams)
}

// Failed returns the number of failure entries.
func (r *Report) Failed() int {
	return len(r.Failures)
}

// FailureCounts tallies failures per reason.
func (r *Report) FailureCounts() map[FailureReason]int {
	counts := make(map[FailureReason]int)
	for _, f := range r.Failures {
		counts[f.Reason]++
	}
	return counts
}
