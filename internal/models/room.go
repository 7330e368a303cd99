package models

// Room is a row of the rooms table.
type Room struct {
	ID          string `db:"id" json:"id"`
	Code        string `db:"code" json:"code"`
	Name        string `db:"name" json:"name"`
	OrgUnit     string `db:"org_unit" json:"org_unit"`
	Capacity    int    `db:"capacity" json:"capacity"`
	SeatColumns int    `db:"seat_columns" json:"seat_columns"`
	SeatRows    int    `db:"seat_rows" json:"seat_rows"`
	GroupSize   int    `db:"group_size" json:"group_size"`
}
