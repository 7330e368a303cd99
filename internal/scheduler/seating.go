package scheduler

import "fmt"

// seatOccupiable applies the group-based occupancy rule to one grid position.
func seatOccupiable(row, column, rows, groupSize int) bool {
	if row == rows-1 {
		return false
	}
	if groupSize < 1 {
		groupSize = 1
	}
	idx := column % groupSize
	switch groupSize {
	case 1:
		return true
	case 2:
		return idx == 0
	default:
		return idx == 0 || idx == groupSize-1
	}
}

// OccupiableSeats returns how many students the room can seat under the occupancy rule,
// never more than its raw capacity.
func OccupiableSeats(room Room) int {
	count := 0
	for row := 0; row < room.Rows; row++ {
		for col := 0; col < room.Columns; col++ {
			if seatOccupiable(row, col, room.Rows, room.GroupSize) {
				count++
			}
		}
	}
	if room.Capacity < count {
		return room.Capacity
	}
	return count
}

// LayoutSeats fills occupiable positions row-major with the students in the given order.
// The roster must fit entirely; nothing is placed otherwise.
func LayoutSeats(room Room, students []string) (SeatMap, error) {
	if available := OccupiableSeats(room); len(students) > available {
		return SeatMap{}, fmt.Errorf("%w: room %s seats %d, roster has %d",
			ErrSeatCapacityExceeded, room.Code, available, len(students))
	}

	seats := make([]SeatAssignment, 0, len(students))
	next := 0
	for row := 0; row < room.Rows && next < len(students); row++ {
		for col := 0; col < room.Columns && next < len(students); col++ {
			if !seatOccupiable(row, col, room.Rows, room.GroupSize) {
				continue
			}
			seats = append(seats, SeatAssignment{StudentID: students[next], Row: row, Column: col})
			next++
		}
	}
	return SeatMap{Seats: seats}, nil
}
