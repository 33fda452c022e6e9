package detmap

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
	"golang.org/x/exp/slices"
)

// DetectorMapEntry is a row of the DetectorMap table. Rows of a detector are
// ordered by Position, the order of the modules in the map.
type DetectorMapEntry struct {
	Detector   string  `db:"Detector"`
	Position   int     `db:"Position"`
	Crate      int     `db:"Crate"`
	Slot       int     `db:"Slot"`
	Lo         int     `db:"Lo"`
	Hi         int     `db:"Hi"`
	First      int     `db:"First"`
	Model      int64   `db:"Model"`
	RefIndex   int     `db:"RefIndex"`
	Resolution float64 `db:"Resolution"`
}

const detectorMapColumns = "Detector, Position, Crate, Slot, Lo, Hi, First, Model, RefIndex, Resolution"

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

// LoadDetectorMap reads the map of a single detector valid for the given run.
func LoadDetectorMap(db *sqlx.DB, runNumber int, detector string) (*Map, error) {
	query := "SELECT " + detectorMapColumns +
		" FROM DetectorMap WHERE MinRun <= ? and MaxRun >= ? and Detector = ? ORDER BY Position"
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Reading %s detector map from database", detector)
		logger.Info(message, "database")
	}
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s", query)
		logger.Info(message, "database")
	}

	entries, err := queryEntries(db, query, runNumber, runNumber, detector)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no detector map for %s in run %d", detector, runNumber)
	}
	return buildMap(entries)
}

// LoadDetectorMaps reads the maps of every detector valid for the given run.
func LoadDetectorMaps(db *sqlx.DB, runNumber int) (map[string]*Map, error) {
	query := "SELECT " + detectorMapColumns +
		" FROM DetectorMap WHERE MinRun <= ? and MaxRun >= ? ORDER BY Detector, Position"
	if configuration.Verbosity > 0 {
		logger.Info("Detector maps read from DB", "database")
	}
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s", query)
		logger.Info(message, "database")
	}

	entries, err := queryEntries(db, query, runNumber, runNumber)
	if err != nil {
		return nil, err
	}

	byDetector := make(map[string][]DetectorMapEntry)
	for _, entry := range entries {
		byDetector[entry.Detector] = append(byDetector[entry.Detector], entry)
	}

	maps := make(map[string]*Map, len(byDetector))
	for detector, detEntries := range byDetector {
		m, err := buildMap(detEntries)
		if err != nil {
			return nil, fmt.Errorf("error building %s detector map: %w", detector, err)
		}
		maps[detector] = m
	}
	return maps, nil
}

// DetectorNames returns the detector names of a set of maps, sorted.
func DetectorNames(maps map[string]*Map) []string {
	names := make([]string, 0, len(maps))
	for name := range maps {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func queryEntries(db *sqlx.DB, query string, args ...interface{}) ([]DetectorMapEntry, error) {
	rows, err := db.Queryx(query, args...)
	if err != nil {
		errMessage := fmt.Errorf("error querying database: %w", err)
		return nil, errMessage
	}
	defer rows.Close()

	entries := make([]DetectorMapEntry, 0)
	for rows.Next() {
		result := DetectorMapEntry{}
		err := rows.StructScan(&result)
		if err != nil {
			errMessage := fmt.Errorf("error scanning DB row: %w", err)
			return nil, errMessage
		}
		entries = append(entries, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading DB rows: %w", err)
	}
	return entries, nil
}

// buildMap flattens the rows into the bulk format and fills a new map with
// it. Resolutions are not part of the bulk format and are set afterwards.
func buildMap(entries []DetectorMapEntry) (*Map, error) {
	flags := FillLogicalChannel | FillModel | FillRefIndex
	values := make([]int, 0, len(entries)*flags.TupleSize())
	for _, e := range entries {
		values = append(values, e.Crate, e.Slot, e.Lo, e.Hi, e.First, int(e.Model), e.RefIndex)
	}

	m := NewMap()
	if _, err := m.Fill(values, flags); err != nil {
		return nil, err
	}
	for i := range m.modules {
		m.modules[i].Resolution = entries[i].Resolution
	}
	return m, nil
}
