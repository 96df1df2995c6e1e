package sh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/mculink/pkg/l1"
)

func TestFormatInfo(t *testing.T) {
	ref := l1.DeviceRef{Type: l1.DefaultDeviceType, ID: "abc"}
	tests := []struct {
		name string
		info l1.DeviceInfo
		want string
	}{
		{"ref only", l1.DeviceInfo{Ref: ref}, "mculink/abc"},
		{"with description", l1.DeviceInfo{Ref: ref, Meta: l1.DeviceMeta{Description: "bench"}}, "mculink/abc: bench"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, FormatInfo(tc.info))
		})
	}
}
