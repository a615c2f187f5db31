// Copyright 2016 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package telemetry

import (
	"context"
	"time"

	"go.opencensus.io/trace"
)

// StartSpan opens an OpenCensus span named "grovedb.<op>" and returns a done
// func that closes the span and reports its latency/outcome to the op
// metrics in one call, for the common case:
//
//	ctx, done := telemetry.StartSpan(ctx, telemetry.OpCommit)
//	defer func() { done(err) }()
func StartSpan(ctx context.Context, op Op) (context.Context, func(err error)) {
	ctx, span := trace.StartSpan(ctx, "grovedb."+string(op))
	start := time.Now()
	return ctx, func(err error) {
		if err != nil {
			span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: err.Error()})
		}
		span.End()
		ObserveLatency(op, time.Since(start).Seconds(), err)
	}
}
