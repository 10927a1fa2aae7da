/*
Copyright (C) 2025 [GrainArc]

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published
by the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
// SQLiteDriver.go
package Goraster

import (
	"database/sql"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqliteFormatVersion = "1"

// sqliteDriver 以 SQLite 文件存储栅格，每个波段一行，像元为小端 float64 数组。
// 新增波段和像元修改在 Flush/Close 时才提交
type sqliteDriver struct{}

func (d *sqliteDriver) ShortName() string { return "SQLite" }

func (d *sqliteDriver) LongName() string { return "SQLite Raster Store" }

func (d *sqliteDriver) HasCapability(capability string) bool {
	switch capability {
	case CapabilityCreate, CapabilityOpen, CapabilityUpdate, CapabilityCreateBand, CapabilityDeferredCommit:
		return true
	}
	return false
}

// sqliteDatasetRecord 数据集记录
type sqliteDatasetRecord struct {
	ID           string `gorm:"column:id;primaryKey"`
	Name         string `gorm:"column:name"`
	Width        int    `gorm:"column:width"`
	Height       int    `gorm:"column:height"`
	GeoTransform string `gorm:"column:geotransform"` // 逗号分隔的6个数，空表示无地理信息
	Projection   string `gorm:"column:projection"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (sqliteDatasetRecord) TableName() string { return "raster_dataset" }

// sqliteBandRecord 波段记录
type sqliteBandRecord struct {
	ID          uint    `gorm:"column:id;primaryKey;autoIncrement"`
	DatasetID   string  `gorm:"column:dataset_id;index"`
	BandIndex   int     `gorm:"column:band_index"`
	DataType    int     `gorm:"column:data_type"`
	BlockXSize  int     `gorm:"column:block_x_size"`
	BlockYSize  int     `gorm:"column:block_y_size"`
	ColorInterp int     `gorm:"column:color_interp"`
	NoData      float64 `gorm:"column:nodata"`
	HasNoData   bool    `gorm:"column:has_nodata"`
	Description string  `gorm:"column:description"`
	Pixels      []byte  `gorm:"column:pixels"`
}

func (sqliteBandRecord) TableName() string { return "raster_band" }

// openSQLite 打开数据库文件，只读模式使用 mode=ro
func openSQLite(path string, readOnly bool) (*sql.DB, *gorm.DB, error) {
	dsn := path
	if readOnly {
		dsn = "file:" + path + "?mode=ro"
	}
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open database")
	}
	sqlDB.SetMaxOpenConns(1)

	db, err := gorm.Open(sqlite.New(sqlite.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		sqlDB.Close()
		return nil, nil, errors.Wrap(err, "failed to initialize gorm")
	}
	return sqlDB, db, nil
}

// createTables 创建元数据表与波段表
func createTables(sqlDB *sql.DB, db *gorm.DB) error {
	if _, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS metadata (
			name TEXT PRIMARY KEY,
			value TEXT
		)`); err != nil {
		return err
	}
	return db.AutoMigrate(&sqliteDatasetRecord{}, &sqliteBandRecord{})
}

// writeMetadata 写入格式元数据
func writeMetadata(sqlDB *sql.DB, metadata map[string]string) error {
	stmt, err := sqlDB.Prepare("INSERT OR REPLACE INTO metadata (name, value) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for k, v := range metadata {
		if _, err := stmt.Exec(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (d *sqliteDriver) Create(name string, width, height, nBands int, dataType BandDataType, options CreationOptions) (DriverDataset, error) {
	if name == "" {
		return nil, errors.New("SQLite datasets need a file path")
	}
	if _, err := os.Stat(name); err == nil {
		return nil, errors.Errorf("file %s already exists", name)
	}

	sqlDB, db, err := openSQLite(name, false)
	if err != nil {
		return nil, err
	}
	if err := createTables(sqlDB, db); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "failed to create tables")
	}
	if err := writeMetadata(sqlDB, map[string]string{
		"format":  "goraster",
		"version": sqliteFormatVersion,
	}); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "failed to write metadata")
	}

	record := sqliteDatasetRecord{
		ID:     uuid.New().String(),
		Name:   filepath.Base(name),
		Width:  width,
		Height: height,
	}
	if err := db.Create(&record).Error; err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "failed to insert dataset")
	}

	ds := &sqliteDataset{path: name, sqlDB: sqlDB, db: db, record: record}
	for i := 0; i < nBands; i++ {
		if _, err := ds.AddBand(dataType, options); err != nil {
			sqlDB.Close()
			return nil, err
		}
	}
	// 初始波段在创建时即提交
	if err := ds.Flush(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return ds, nil
}

func (d *sqliteDriver) Open(name string, access Access) (DriverDataset, error) {
	if _, err := os.Stat(name); err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", name)
	}
	readOnly := access == ReadOnly
	sqlDB, db, err := openSQLite(name, readOnly)
	if err != nil {
		return nil, err
	}

	ds, err := loadSQLiteDataset(db, readOnly)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	ds.path, ds.sqlDB = name, sqlDB
	return ds, nil
}

func loadSQLiteDataset(db *gorm.DB, readOnly bool) (*sqliteDataset, error) {
	var record sqliteDatasetRecord
	if err := db.First(&record).Error; err != nil {
		return nil, errors.Wrap(err, "not a raster database")
	}
	var records []sqliteBandRecord
	if err := db.Where("dataset_id = ?", record.ID).Order("band_index").Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "failed to read bands")
	}

	ds := &sqliteDataset{db: db, record: record, readOnly: readOnly}
	for i, rec := range records {
		if rec.BandIndex != i+1 {
			return nil, errors.Errorf("band indices not contiguous: expected %d, found %d", i+1, rec.BandIndex)
		}
		data, err := decodePixels(rec.Pixels, record.Width*record.Height)
		if err != nil {
			return nil, errors.Wrapf(err, "band %d", rec.BandIndex)
		}
		rec.Pixels = nil
		ds.bands = append(ds.bands, &sqliteBand{ds: ds, record: rec, data: data, persisted: true})
	}
	return ds, nil
}

func encodePixels(data []float64) []byte {
	buf := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func decodePixels(buf []byte, n int) ([]float64, error) {
	if len(buf) != 8*n {
		return nil, errors.Errorf("pixel blob has %d bytes, expected %d", len(buf), 8*n)
	}
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return data, nil
}

func formatGeoTransform(gt [6]float64) string {
	parts := make([]string, len(gt))
	for i, v := range gt {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func parseGeoTransform(s string) ([6]float64, bool) {
	var gt [6]float64
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return gt, false
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return gt, false
		}
		gt[i] = v
	}
	return gt, true
}

var errSQLiteReadOnly = errors.New("SQLite dataset opened read-only")

type sqliteDataset struct {
	mu       sync.RWMutex
	path     string
	sqlDB    *sql.DB
	db       *gorm.DB
	record   sqliteDatasetRecord
	bands    []*sqliteBand
	readOnly bool
	dirty    bool
}

func (ds *sqliteDataset) RasterSize() (int, int) {
	return ds.record.Width, ds.record.Height
}

func (ds *sqliteDataset) GetBandCount() int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return len(ds.bands)
}

func (ds *sqliteDataset) GetBand(index int) (DriverBand, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	if index < 1 || index > len(ds.bands) {
		return nil, errors.Errorf("band %d does not exist", index)
	}
	return ds.bands[index-1], nil
}

func (ds *sqliteDataset) AddBand(dataType BandDataType, options CreationOptions) (DriverBand, error) {
	if ds.readOnly {
		return nil, errSQLiteReadOnly
	}
	if !dataType.Valid() {
		return nil, errors.Errorf("unsupported data type %s", dataType)
	}
	s := settingsFromOptions(options, ds.record.Width, ds.record.Height)

	ds.mu.Lock()
	defer ds.mu.Unlock()
	band := &sqliteBand{
		ds: ds,
		record: sqliteBandRecord{
			DatasetID:   ds.record.ID,
			BandIndex:   len(ds.bands) + 1,
			DataType:    int(dataType),
			BlockXSize:  s.blockX,
			BlockYSize:  s.blockY,
			ColorInterp: int(s.colorInterp),
			NoData:      s.noData,
			HasNoData:   s.hasNoData,
			Description: s.description,
		},
		data:  make([]float64, ds.record.Width*ds.record.Height),
		dirty: true,
	}
	ds.bands = append(ds.bands, band)
	return band, nil
}

func (ds *sqliteDataset) GeoTransform() ([6]float64, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return parseGeoTransform(ds.record.GeoTransform)
}

func (ds *sqliteDataset) SetGeoTransform(gt [6]float64) error {
	if ds.readOnly {
		return errSQLiteReadOnly
	}
	ds.mu.Lock()
	ds.record.GeoTransform, ds.dirty = formatGeoTransform(gt), true
	ds.mu.Unlock()
	return nil
}

func (ds *sqliteDataset) Projection() string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.record.Projection
}

func (ds *sqliteDataset) SetProjection(wkt string) error {
	if ds.readOnly {
		return errSQLiteReadOnly
	}
	ds.mu.Lock()
	ds.record.Projection, ds.dirty = wkt, true
	ds.mu.Unlock()
	return nil
}

// Flush 在一个事务中提交数据集记录与所有未提交的波段
func (ds *sqliteDataset) Flush() error {
	if ds.readOnly {
		return nil
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()

	err := ds.db.Transaction(func(tx *gorm.DB) error {
		if ds.dirty {
			if err := tx.Save(&ds.record).Error; err != nil {
				return errors.Wrap(err, "failed to save dataset")
			}
		}
		for _, b := range ds.bands {
			if b.persisted && !b.dirty {
				continue
			}
			b.record.Pixels = encodePixels(b.data)
			err := tx.Save(&b.record).Error
			b.record.Pixels = nil
			if err != nil {
				return errors.Wrapf(err, "failed to save band %d", b.record.BandIndex)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	ds.dirty = false
	for _, b := range ds.bands {
		b.persisted, b.dirty = true, false
	}
	logf("SQLite 数据集已提交: %s", ds.path)
	return nil
}

func (ds *sqliteDataset) Close() error {
	flushErr := ds.Flush()
	closeErr := ds.sqlDB.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

type sqliteBand struct {
	ds        *sqliteDataset
	record    sqliteBandRecord
	data      []float64
	persisted bool
	dirty     bool
}

func (b *sqliteBand) DataType() BandDataType { return BandDataType(b.record.DataType) }

func (b *sqliteBand) BlockSize() (int, int) { return b.record.BlockXSize, b.record.BlockYSize }

func (b *sqliteBand) ColorInterp() ColorInterpretation {
	b.ds.mu.RLock()
	defer b.ds.mu.RUnlock()
	return ColorInterpretation(b.record.ColorInterp)
}

func (b *sqliteBand) SetColorInterp(ci ColorInterpretation) error {
	if b.ds.readOnly {
		return errSQLiteReadOnly
	}
	b.ds.mu.Lock()
	b.record.ColorInterp, b.dirty = int(ci), true
	b.ds.mu.Unlock()
	return nil
}

func (b *sqliteBand) NoData() (float64, bool) {
	b.ds.mu.RLock()
	defer b.ds.mu.RUnlock()
	return b.record.NoData, b.record.HasNoData
}

func (b *sqliteBand) SetNoData(value float64) error {
	if b.ds.readOnly {
		return errSQLiteReadOnly
	}
	b.ds.mu.Lock()
	b.record.NoData, b.record.HasNoData, b.dirty = value, true, true
	b.ds.mu.Unlock()
	return nil
}

func (b *sqliteBand) Description() string { return b.record.Description }

func (b *sqliteBand) RasterIO(op IOOperation, x, y, width, height int, buffer []float64) error {
	if op == IORead {
		b.ds.mu.RLock()
		defer b.ds.mu.RUnlock()
		return windowIO(b.data, b.ds.record.Width, b.ds.record.Height, b.DataType(), op, x, y, width, height, buffer)
	}
	if b.ds.readOnly {
		return errSQLiteReadOnly
	}
	b.ds.mu.Lock()
	defer b.ds.mu.Unlock()
	if err := windowIO(b.data, b.ds.record.Width, b.ds.record.Height, b.DataType(), op, x, y, width, height, buffer); err != nil {
		return err
	}
	b.dirty = true
	return nil
}
