package api

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCompletionRequest_Validate(t *testing.T) {
	Convey("Given a completion request", t, func() {
		yes := true
		req := completionRequest{UserID: "u1", Kind: "habit", Completed: &yes, HabitStreak: 2}

		Convey("A complete request passes", func() {
			So(req.validate(), ShouldBeNil)
		})

		Convey("user_id is required", func() {
			req.UserID = "  "
			So(req.validate(), ShouldNotBeNil)
		})

		Convey("kind is required", func() {
			req.Kind = ""
			So(req.validate(), ShouldNotBeNil)
		})

		Convey("completed is required", func() {
			req.Completed = nil
			So(req.validate(), ShouldNotBeNil)
		})

		Convey("A negative streak is rejected", func() {
			req.HabitStreak = -1
			So(req.validate(), ShouldNotBeNil)
		})

		Convey("ts must be RFC3339 when present", func() {
			req.TS = "yesterday"
			So(req.validate(), ShouldNotBeNil)
			req.TS = "2026-03-01T10:00:00+02:00"
			So(req.validate(), ShouldBeNil)
		})

		Convey("event trims identifiers and copies the outcome", func() {
			req.UserID = " u1 "
			req.EventID = " e9 "
			e := req.event()
			So(e.UserID, ShouldEqual, "u1")
			So(e.EventID, ShouldEqual, "e9")
			So(e.Completed, ShouldBeTrue)
		})
	})
}

func TestPathID(t *testing.T) {
	Convey("pathID extracts a single segment", t, func() {
		So(pathID("/ratings/u1", "/ratings/"), ShouldEqual, "u1")
		So(pathID("/ratings/", "/ratings/"), ShouldEqual, "")
		So(pathID("/ratings/a/b", "/ratings/"), ShouldEqual, "")
		So(pathID("/other/u1", "/ratings/"), ShouldEqual, "")
	})
}

func TestGetErrorType(t *testing.T) {
	Convey("Status codes map to error types", t, func() {
		So(getErrorType(400), ShouldEqual, "client_error")
		So(getErrorType(404), ShouldEqual, "not_found")
		So(getErrorType(429), ShouldEqual, "rate_limit")
		So(getErrorType(500), ShouldEqual, "server_error")
		So(getErrorType(503), ShouldEqual, "unavailable")
	})
}
