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

package merk

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/dashpay/grovedb-go/storage"
	"github.com/dashpay/grovedb-go/storage/storagemock"
)

// TestOpenPropagatesMetaReadFailure exercises fault injection via
// storagemock: a storage-layer error reading the persisted root key must
// surface from Open rather than being swallowed.
func TestOpenPropagatesMetaReadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db := storagemock.NewMockContext(ctrl)
	wantErr := errors.New("injected meta read failure")
	db.EXPECT().GetMeta(gomock.Any(), gomock.Any()).Return(nil, storage.Cost{}, wantErr)

	if _, _, err := Open(context.Background(), db, nil, TreeTypeNormal); err == nil {
		t.Fatal("Open succeeded despite injected GetMeta failure, want error")
	}
}

// TestOpenEmptyTreeReadsOnlyMeta exercises the call-count assertion half of
// gomock: an empty tree's Open must read the meta column exactly once and
// never touch the data column.
func TestOpenEmptyTreeReadsOnlyMeta(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db := storagemock.NewMockContext(ctrl)
	db.EXPECT().GetMeta(gomock.Any(), gomock.Any()).Times(1).Return(nil, storage.Cost{}, nil)

	tr, _, err := Open(context.Background(), db, nil, TreeTypeNormal)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !tr.IsEmpty() {
		t.Fatal("tree with no persisted root key should be empty")
	}
}
