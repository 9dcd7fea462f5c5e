package proc

import "testing"

func TestExitCodeFromRaw(t *testing.T) {
	tests := []struct {
		name   string
		status int64
		want   ExitCode
	}{
		{"zero is success", 0, Success},
		{"named code passes through", int64(NotFound), NotFound},
		{"last named code", int64(Killed), Killed},
		{"negative is general failure", -1, GeneralFailure},
		{"past the named range is general failure", int64(Killed) + 1, GeneralFailure},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExitCodeFromRaw(tc.status); got != tc.want {
				t.Errorf("ExitCodeFromRaw(%d) = %s, want %s", tc.status, got, tc.want)
			}
		})
	}
}

func TestExitCode_String(t *testing.T) {
	if Success.String() != "Success" {
		t.Errorf("Success.String() = %q", Success.String())
	}

	if ExitCode(200).String() != "Unknown" {
		t.Errorf("out-of-range ExitCode.String() = %q, want Unknown", ExitCode(200).String())
	}
}
