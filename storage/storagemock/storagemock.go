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

// Package storagemock is a gomock-based mock of storage.Context and
// storage.Transaction, hand-written in the shape mockgen would generate, for
// merk and forest unit tests that need to assert on call sequences or fault
// injection rather than exercise a real MemStore.
package storagemock

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"

	"github.com/dashpay/grovedb-go/storage"
)

// MockContext is a mock of the storage.Context interface.
type MockContext struct {
	ctrl     *gomock.Controller
	recorder *MockContextMockRecorder
}

// MockContextMockRecorder is the mock recorder for MockContext.
type MockContextMockRecorder struct {
	mock *MockContext
}

// NewMockContext creates a new mock instance.
func NewMockContext(ctrl *gomock.Controller) *MockContext {
	mock := &MockContext{ctrl: ctrl}
	mock.recorder = &MockContextMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockContext) EXPECT() *MockContextMockRecorder {
	return m.recorder
}

func (m *MockContext) Get(ctx context.Context, key []byte) ([]byte, storage.Cost, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Get", ctx, key)
	ret0, _ := ret[0].([]byte)
	ret1, _ := ret[1].(storage.Cost)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

func (mr *MockContextMockRecorder) Get(ctx, key interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Get", reflect.TypeOf((*MockContext)(nil).Get), ctx, key)
}

func (m *MockContext) Put(ctx context.Context, key, value []byte) (storage.Cost, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Put", ctx, key, value)
	ret0, _ := ret[0].(storage.Cost)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockContextMockRecorder) Put(ctx, key, value interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Put", reflect.TypeOf((*MockContext)(nil).Put), ctx, key, value)
}

func (m *MockContext) Delete(ctx context.Context, key []byte) (storage.Cost, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Delete", ctx, key)
	ret0, _ := ret[0].(storage.Cost)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockContextMockRecorder) Delete(ctx, key interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Delete", reflect.TypeOf((*MockContext)(nil).Delete), ctx, key)
}

func (m *MockContext) RawIterate(ctx context.Context) (storage.Iterator, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RawIterate", ctx)
	ret0, _ := ret[0].(storage.Iterator)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockContextMockRecorder) RawIterate(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RawIterate", reflect.TypeOf((*MockContext)(nil).RawIterate), ctx)
}

func (m *MockContext) GetMeta(ctx context.Context, key []byte) ([]byte, storage.Cost, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetMeta", ctx, key)
	ret0, _ := ret[0].([]byte)
	ret1, _ := ret[1].(storage.Cost)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

func (mr *MockContextMockRecorder) GetMeta(ctx, key interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetMeta", reflect.TypeOf((*MockContext)(nil).GetMeta), ctx, key)
}

func (m *MockContext) PutMeta(ctx context.Context, key, value []byte) (storage.Cost, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PutMeta", ctx, key, value)
	ret0, _ := ret[0].(storage.Cost)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockContextMockRecorder) PutMeta(ctx, key, value interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PutMeta", reflect.TypeOf((*MockContext)(nil).PutMeta), ctx, key, value)
}

func (m *MockContext) NewBatch() storage.Batch {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "NewBatch")
	ret0, _ := ret[0].(storage.Batch)
	return ret0
}

func (mr *MockContextMockRecorder) NewBatch() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "NewBatch", reflect.TypeOf((*MockContext)(nil).NewBatch))
}

func (m *MockContext) BeginTransaction(ctx context.Context) (storage.Transaction, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BeginTransaction", ctx)
	ret0, _ := ret[0].(storage.Transaction)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockContextMockRecorder) BeginTransaction(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BeginTransaction", reflect.TypeOf((*MockContext)(nil).BeginTransaction), ctx)
}

// MockTransaction is a mock of the storage.Transaction interface.
type MockTransaction struct {
	ctrl     *gomock.Controller
	recorder *MockTransactionMockRecorder
}

// MockTransactionMockRecorder is the mock recorder for MockTransaction.
type MockTransactionMockRecorder struct {
	mock *MockTransaction
}

// NewMockTransaction creates a new mock instance.
func NewMockTransaction(ctrl *gomock.Controller) *MockTransaction {
	mock := &MockTransaction{ctrl: ctrl}
	mock.recorder = &MockTransactionMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockTransaction) EXPECT() *MockTransactionMockRecorder {
	return m.recorder
}

func (m *MockTransaction) Get(ctx context.Context, key []byte) ([]byte, storage.Cost, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Get", ctx, key)
	ret0, _ := ret[0].([]byte)
	ret1, _ := ret[1].(storage.Cost)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

func (mr *MockTransactionMockRecorder) Get(ctx, key interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Get", reflect.TypeOf((*MockTransaction)(nil).Get), ctx, key)
}

func (m *MockTransaction) Put(ctx context.Context, key, value []byte) (storage.Cost, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Put", ctx, key, value)
	ret0, _ := ret[0].(storage.Cost)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockTransactionMockRecorder) Put(ctx, key, value interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Put", reflect.TypeOf((*MockTransaction)(nil).Put), ctx, key, value)
}

func (m *MockTransaction) Delete(ctx context.Context, key []byte) (storage.Cost, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Delete", ctx, key)
	ret0, _ := ret[0].(storage.Cost)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockTransactionMockRecorder) Delete(ctx, key interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Delete", reflect.TypeOf((*MockTransaction)(nil).Delete), ctx, key)
}

func (m *MockTransaction) RawIterate(ctx context.Context) (storage.Iterator, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RawIterate", ctx)
	ret0, _ := ret[0].(storage.Iterator)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockTransactionMockRecorder) RawIterate(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RawIterate", reflect.TypeOf((*MockTransaction)(nil).RawIterate), ctx)
}

func (m *MockTransaction) GetMeta(ctx context.Context, key []byte) ([]byte, storage.Cost, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetMeta", ctx, key)
	ret0, _ := ret[0].([]byte)
	ret1, _ := ret[1].(storage.Cost)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

func (mr *MockTransactionMockRecorder) GetMeta(ctx, key interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetMeta", reflect.TypeOf((*MockTransaction)(nil).GetMeta), ctx, key)
}

func (m *MockTransaction) PutMeta(ctx context.Context, key, value []byte) (storage.Cost, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PutMeta", ctx, key, value)
	ret0, _ := ret[0].(storage.Cost)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockTransactionMockRecorder) PutMeta(ctx, key, value interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PutMeta", reflect.TypeOf((*MockTransaction)(nil).PutMeta), ctx, key, value)
}

func (m *MockTransaction) NewBatch() storage.Batch {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "NewBatch")
	ret0, _ := ret[0].(storage.Batch)
	return ret0
}

func (mr *MockTransactionMockRecorder) NewBatch() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "NewBatch", reflect.TypeOf((*MockTransaction)(nil).NewBatch))
}

func (m *MockTransaction) BeginTransaction(ctx context.Context) (storage.Transaction, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BeginTransaction", ctx)
	ret0, _ := ret[0].(storage.Transaction)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockTransactionMockRecorder) BeginTransaction(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BeginTransaction", reflect.TypeOf((*MockTransaction)(nil).BeginTransaction), ctx)
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Commit", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockTransactionMockRecorder) Commit(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Commit", reflect.TypeOf((*MockTransaction)(nil).Commit), ctx)
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Rollback", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockTransactionMockRecorder) Rollback(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Rollback", reflect.TypeOf((*MockTransaction)(nil).Rollback), ctx)
}

func (m *MockTransaction) ApplyBatch(ctx context.Context, b storage.Batch) (storage.Cost, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ApplyBatch", ctx, b)
	ret0, _ := ret[0].(storage.Cost)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockTransactionMockRecorder) ApplyBatch(ctx, b interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ApplyBatch", reflect.TypeOf((*MockTransaction)(nil).ApplyBatch), ctx, b)
}

var (
	_ storage.Context     = (*MockContext)(nil)
	_ storage.Transaction = (*MockTransaction)(nil)
)
