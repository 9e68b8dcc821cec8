package downloads

import "testing"

func TestParseProgressLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantOK  bool
		want    Progress
		minRate float64
	}{
		{
			name:   "full tick",
			line:   "[download]  42.5% of 10.00MiB at 2.00MiB/s ETA 00:03",
			wantOK: true,
			want:   Progress{Percent: 42.5, SpeedBytesPerSec: 2 * 1024 * 1024, ETASeconds: 3},
		},
		{
			name:   "approximate size and hour eta",
			line:   "[download]   1.0% of ~ 1.50GiB at  512.00KiB/s ETA 1:02:03",
			wantOK: true,
			want:   Progress{Percent: 1, SpeedBytesPerSec: 512 * 1024, ETASeconds: 3723},
		},
		{
			name:   "unknown speed",
			line:   "[download]   0.0% of 10.00MiB at Unknown B/s ETA Unknown",
			wantOK: true,
			want:   Progress{Percent: 0},
		},
		{
			name:   "finished",
			line:   "[download] 100% of 10.00MiB in 00:00:05 at 2.00MiB/s",
			wantOK: true,
			want:   Progress{Percent: 100, SpeedBytesPerSec: 2 * 1024 * 1024},
		},
		{
			name:   "destination line",
			line:   "[download] Destination: /tmp/video.mp4",
			wantOK: false,
		},
		{
			name:   "empty",
			line:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseProgressLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got != tt.want {
				t.Errorf("ParseProgressLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	cases := map[string]int{
		"05":       5,
		"01:30":    90,
		"02:00:01": 7201,
		"x:10":     0,
	}
	for in, want := range cases {
		if got := parseClock(in); got != want {
			t.Errorf("parseClock(%q) = %d, want %d", in, got, want)
		}
	}
}
