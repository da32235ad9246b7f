package lib

import (
	"context"

	"github.com/nicl83/openxiino"
)

type segmentsKey struct{}

func withSegments(ctx context.Context, segments [openxiino.PathSegments]string) context.Context {
	return context.WithValue(ctx, segmentsKey{}, segments)
}

func segmentsFrom(ctx context.Context) [openxiino.PathSegments]string {
	segments, _ := ctx.Value(segmentsKey{}).([openxiino.PathSegments]string)
	return segments
}
