// Package telemetry defines the export record layouts and writes run
// output as CSV files.
package telemetry

// IndividualRecord is one live individual. The column order is the
// data layout contract consumed by downstream tools.
type IndividualRecord struct {
	ID        uint32 `csv:"id"`
	FatherID  uint32 `csv:"father_id"` // 0 marks a founder link
	MotherID  uint32 `csv:"mother_id"`
	BirthYear int    `csv:"birth_year"`
	Location  int    `csv:"location"`
}

// FamilyRecord is one node of the sampled ancestry forest.
// CaptureYear is 0 for ancestors that were never sampled themselves;
// simulation years start at 1.
type FamilyRecord struct {
	IndividualRecord
	CaptureYear int `csv:"capture_year"`
}

// DemographyRow is one (year, quarter, location, age) count cell.
type DemographyRow struct {
	Year     int `csv:"year"`
	Quarter  int `csv:"quarter"`
	Location int `csv:"location"`
	Age      int `csv:"age"`
	Count    int `csv:"count"`
}
