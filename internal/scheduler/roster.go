package scheduler

import (
	"context"
	"fmt"
	"sort"
)

// DataSource supplies the typed course and room records of a run.
type DataSource interface {
	LoadCourses(ctx context.Context, ids []string) ([]Course, error)
	LoadRooms(ctx context.Context, orgUnit string) ([]Room, error)
}

// RosterFilter narrows what a run loads. Zero values load everything.
type RosterFilter struct {
	CourseIDs []string
	OrgUnit   string
}

// Roster is the in-memory view of one run's inputs. Rooms are ordered ascending by capacity.
type Roster struct {
	Courses []Course
	Rooms   []Room
}

// LoadRoster reads courses and rooms once from the source and normalises them.
func LoadRoster(ctx context.Context, src DataSource, filter RosterFilter) (*Roster, error) {
	courses, err := src.LoadCourses(ctx, filter.CourseIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: load courses: %w", ErrDataUnavailable, err)
	}
	rooms, err := src.LoadRooms(ctx, filter.OrgUnit)
	if err != nil {
		return nil, fmt.Errorf("%w: load rooms: %w", ErrDataUnavailable, err)
	}
	return NewRoster(courses, rooms), nil
}

// NewRoster copies the inputs, deduplicates and sorts each course's students, and orders rooms
// by capacity keeping the source order among equal capacities.
func NewRoster(courses []Course, rooms []Room) *Roster {
	r := &Roster{
		Courses: make([]Course, 0, len(courses)),
		Rooms:   make([]Room, len(rooms)),
	}
	for _, c := range courses {
		c.Students = uniqueSorted(c.Students)
		r.Courses = append(r.Courses, c)
	}
	copy(r.Rooms, rooms)
	sort.SliceStable(r.Rooms, func(i, j int) bool {
		return r.Rooms[i].Capacity < r.Rooms[j].Capacity
	})
	return r
}

// CandidateRooms returns rooms able to seat n students, smallest first.
func (r *Roster) CandidateRooms(n int) []Room {
	var result []Room
	for _, room := range r.Rooms {
		if room.Capacity >= n {
			result = append(result, room)
		}
	}
	return result
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
