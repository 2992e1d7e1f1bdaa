// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"testing"
)

func TestDecodeListBareArray(t *testing.T) {
	page, err := decodeList[Member]([]byte(`[{"id":1,"name":"Ana"},{"id":2,"name":"Ben"}]`))
	if err != nil {
		t.Fatalf("decodeList: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(page.Items))
	}
	if page.Items[0].Name != "Ana" {
		t.Errorf("Items[0].Name = %q", page.Items[0].Name)
	}
	if page.HasMore() {
		t.Error("bare array should not report further pages")
	}
}

func TestDecodeListEnvelopeWithMeta(t *testing.T) {
	body := []byte(`{"data":[{"id":1,"name":"Ana"}],"meta":{"current_page":1,"last_page":3,"per_page":10,"total":25}}`)
	page, err := decodeList[Member](body)
	if err != nil {
		t.Fatalf("decodeList: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(page.Items))
	}
	if page.Meta.Total != 25 {
		t.Errorf("Meta.Total = %d, want 25", page.Meta.Total)
	}
	if !page.HasMore() {
		t.Error("page 1 of 3 should report further pages")
	}
}

func TestDecodeListEnvelopeWithoutMeta(t *testing.T) {
	page, err := decodeList[Event]([]byte(`{"data":[{"id":7,"title":"Picnic"}]}`))
	if err != nil {
		t.Fatalf("decodeList: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Title != "Picnic" {
		t.Fatalf("Items = %+v", page.Items)
	}
}

func TestDecodeListRejectsGarbage(t *testing.T) {
	if _, err := decodeList[Member]([]byte(`not json`)); err == nil {
		t.Fatal("expected an error for a non-JSON body")
	}
}

func TestDecodeItemWrappedAndBare(t *testing.T) {
	wrapped, err := decodeItem[Member]([]byte(`{"data":{"id":3,"name":"Cora"}}`))
	if err != nil {
		t.Fatalf("decodeItem wrapped: %v", err)
	}
	if wrapped.ID != 3 || wrapped.Name != "Cora" {
		t.Errorf("wrapped = %+v", wrapped)
	}

	bare, err := decodeItem[Member]([]byte(`{"id":3,"name":"Cora"}`))
	if err != nil {
		t.Fatalf("decodeItem bare: %v", err)
	}
	if bare != wrapped {
		t.Errorf("bare = %+v, wrapped = %+v", bare, wrapped)
	}
}
