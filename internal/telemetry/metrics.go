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

// Package telemetry carries the ambient metrics and tracing stack
// (spec.md §5's cost accounting and concurrency model) across package
// boundaries: storage.Cost observations as Prometheus metrics, and
// OpenCensus spans around forest.Forest's Apply and Commit.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dashpay/grovedb-go/storage"
)

// Op labels the operation a Cost observation came from, for the "op" metric
// label.
type Op string

const (
	OpGet    Op = "get"
	OpPut    Op = "put"
	OpDelete Op = "delete"
	OpCommit Op = "commit"
	OpProve  Op = "prove"
	OpVerify Op = "verify"
)

var (
	seekCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grovedb",
		Name:      "seek_count",
		Help:      "Cumulative storage.Cost.SeekCount observed per operation.",
	}, []string{"op"})

	storageLoadedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grovedb",
		Name:      "storage_loaded_bytes",
		Help:      "Cumulative storage.Cost.StorageLoadedBytes observed per operation.",
	}, []string{"op"})

	storageWrittenBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grovedb",
		Name:      "storage_written_bytes",
		Help:      "Cumulative storage.Cost.StorageWrittenBytes observed per operation.",
	}, []string{"op"})

	hashByteCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grovedb",
		Name:      "hash_byte_calls",
		Help:      "Cumulative storage.Cost.HashByteCalls observed per operation.",
	}, []string{"op"})

	hashNodeCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grovedb",
		Name:      "hash_node_calls",
		Help:      "Cumulative storage.Cost.HashNodeCalls observed per operation.",
	}, []string{"op"})

	opLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "grovedb",
		Name:      "op_latency_seconds",
		Help:      "Wall-clock latency of a top-level operation, by op and outcome.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op", "outcome"})
)

// ObserveCost records one operation's accumulated storage.Cost against op's
// label set.
func ObserveCost(op Op, cost storage.Cost) {
	label := prometheus.Labels{"op": string(op)}
	seekCount.With(label).Add(float64(cost.SeekCount))
	storageLoadedBytes.With(label).Add(float64(cost.StorageLoadedBytes))
	storageWrittenBytes.With(label).Add(float64(cost.StorageWrittenBytes))
	hashByteCalls.With(label).Add(float64(cost.HashByteCalls))
	hashNodeCalls.With(label).Add(float64(cost.HashNodeCalls))
}

// ObserveLatency records how long op took, labeled by whether it succeeded.
func ObserveLatency(op Op, seconds float64, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	opLatency.With(prometheus.Labels{"op": string(op), "outcome": outcome}).Observe(seconds)
}
