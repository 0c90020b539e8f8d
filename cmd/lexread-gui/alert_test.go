package main

import "testing"

func TestUploadFailureRaisesBlockingAlert(t *testing.T) {
	m := &guiApp{updates: make(chan guiUpdate, 4), loading: true}
	m.enqueueUpdate(guiUpdate{alertText: "Upload failed: unsupported file format"})
	m.processUpdates()

	if m.alertText != "Upload failed: unsupported file format" {
		t.Fatalf("alert not raised, got %q", m.alertText)
	}
	if m.loading {
		t.Fatalf("loading state must clear when the upload fails")
	}
	if m.lastError != "" {
		t.Fatalf("upload failure goes to the modal, not the status row, got %q", m.lastError)
	}
}

func TestStatusErrorDoesNotRaiseAlert(t *testing.T) {
	m := &guiApp{updates: make(chan guiUpdate, 4)}
	m.enqueueUpdate(guiUpdate{errText: "discovery failed: timeout"})
	m.processUpdates()

	if m.alertText != "" {
		t.Fatalf("status errors must not open the modal, got %q", m.alertText)
	}
	if m.lastError != "discovery failed: timeout" {
		t.Fatalf("status row error missing, got %q", m.lastError)
	}
}
