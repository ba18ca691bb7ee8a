package testutil

import "testing"

// Scenario steps run as named subtests so a failing step reads like
// "TestCaseToDeliveredAid/When_the_case_is_submitted".
func Given(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return step(t, "Given", desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return step(t, "When", desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return step(t, "Then", desc, fn)
}

func And(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return step(t, "And", desc, fn)
}

// step stops the enclosing scenario once a step fails; later steps depend on
// the state the failed one was meant to build.
func step(t *testing.T, keyword, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	ok := t.Run(keyword+" "+desc, fn)
	if !ok {
		t.FailNow()
	}
	return ok
}
