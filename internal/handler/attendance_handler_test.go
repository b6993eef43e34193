package handler

import (
	"testing"
	"time"

	"gym-service/internal/model"
)

func TestDuplicateScanResponseCarriesExistingRecord(t *testing.T) {
	checkIn := time.Date(2026, 3, 15, 9, 58, 0, 0, time.UTC)
	member := model.Member{GymID: "GYMAAA111BB", MemberID: "MEMTEST01"}
	last := model.Attendance{
		ID:            7,
		GymID:         member.GymID,
		MemberRef:     3,
		CheckInTime:   checkIn,
		AccessGranted: true,
	}

	resp := duplicateScanResponse(&member, &last)

	if resp["skippedDuplicate"] != true {
		t.Error("response not tagged as a skipped duplicate")
	}
	if resp["accessGranted"] != true {
		t.Error("duplicate scan must still report access granted")
	}
	got, ok := resp["attendance"].(*model.Attendance)
	if !ok {
		t.Fatal("response missing the existing attendance record")
	}
	if got.ID != last.ID || !got.CheckInTime.Equal(checkIn) {
		t.Errorf("attendance = %+v, want the existing record", got)
	}
	if lastTime, ok := resp["lastCheckIn"].(time.Time); !ok || !lastTime.Equal(checkIn) {
		t.Errorf("lastCheckIn = %v, want %v", resp["lastCheckIn"], checkIn)
	}
}
