package shogi

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// HistoryRecord is one history entry as a parquet row.
type HistoryRecord struct {
	Ply       int32  `parquet:"name=ply, type=INT32"`
	Move      string `parquet:"name=move, type=BYTE_ARRAY, convertedtype=UTF8"`
	Kind      string `parquet:"name=kind, type=BYTE_ARRAY, convertedtype=UTF8"`
	Promotion string `parquet:"name=promotion, type=BYTE_ARRAY, convertedtype=UTF8"`
	Hash      int64  `parquet:"name=hash, type=INT64"`
	State     string `parquet:"name=state, type=BYTE_ARRAY, convertedtype=UTF8"`
}

type ParquetSchema struct {
	Name   string         `json:"name"`
	Fields []ParquetField `json:"fields"`
}

type ParquetField struct {
	Name     string      `json:"name"`
	Type     interface{} `json:"type"`
	Nullable bool        `json:"nullable"`
}

//go:embed schema/history_schema.json
var historySchemaJSON []byte

var kindNames = [...]string{Quiet: "move", Capture: "capture", Drop: "drop"}
var promotionNames = [...]string{PromotionNone: "", PromotionAccepted: "promoted", PromotionDeclined: "declined"}

// HistoryRecords converts entries to parquet rows. Ply counts from 1.
func HistoryRecords(entries []HistoryEntry) []HistoryRecord {
	records := make([]HistoryRecord, 0, len(entries))
	for i, e := range entries {
		records = append(records, HistoryRecord{
			Ply:       int32(i + 1),
			Move:      e.Move.String(),
			Kind:      kindNames[e.Move.Kind],
			Promotion: promotionNames[e.Move.Promotion],
			Hash:      int64(e.Hash),
			State:     e.State.String(),
		})
	}
	return records
}

// WriteHistoryParquet writes entries to path with snappy compression.
func WriteHistoryParquet(path string, entries []HistoryEntry, parallel int64) error {
	schema, err := loadParquetSchema(historySchemaJSON)
	if err != nil {
		return err
	}
	if err := validateSchema(schema, HistoryRecord{}); err != nil {
		return err
	}

	fileWriter, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer fileWriter.Close()

	parquetWriter, err := writer.NewParquetWriter(fileWriter, new(HistoryRecord), parallel)
	if err != nil {
		return err
	}
	parquetWriter.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, record := range HistoryRecords(entries) {
		if err := parquetWriter.Write(record); err != nil {
			return err
		}
	}
	if err := parquetWriter.WriteStop(); err != nil {
		return err
	}
	return fileWriter.Close()
}

// ReadHistoryParquet reads back the rows written by WriteHistoryParquet.
func ReadHistoryParquet(path string, parallel int64) ([]HistoryRecord, error) {
	fileReader, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	defer fileReader.Close()

	parquetReader, err := reader.NewParquetReader(fileReader, new(HistoryRecord), parallel)
	if err != nil {
		return nil, err
	}
	defer parquetReader.ReadStop()

	num := int(parquetReader.GetNumRows())
	records := make([]HistoryRecord, 0, num)
	batchSize := 1024
	for offset := 0; offset < num; offset += batchSize {
		if remain := num - offset; remain < batchSize {
			batchSize = remain
		}
		batch := make([]HistoryRecord, batchSize)
		if err := parquetReader.Read(&batch); err != nil {
			return nil, err
		}
		records = append(records, batch...)
	}
	return records, nil
}

// Entry rebuilds a HistoryEntry from a row.
func (r HistoryRecord) Entry() (HistoryEntry, error) {
	m, err := ParseMove(r.Move)
	if err != nil {
		return HistoryEntry{}, err
	}
	if len(r.State) != StateLength-1 {
		return HistoryEntry{}, fmt.Errorf("%w: state has %d bytes", ErrSizeMismatch, len(r.State))
	}
	var state State
	copy(state[:], r.State)
	if _, err := state.Decode(); err != nil {
		return HistoryEntry{}, err
	}
	return HistoryEntry{Move: m, Hash: uint64(r.Hash), State: state}, nil
}

func loadParquetSchema(data []byte) (ParquetSchema, error) {
	var schema ParquetSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return ParquetSchema{}, err
	}
	return schema, nil
}

func validateSchema(schema ParquetSchema, sample any) error {
	schemaFields := make(map[string]struct{}, len(schema.Fields))
	for _, field := range schema.Fields {
		schemaFields[field.Name] = struct{}{}
	}
	structFields := structParquetFieldNames(sample)
	missing := diffKeys(schemaFields, structFields)
	extra := diffKeys(structFields, schemaFields)
	if len(missing) > 0 || len(extra) > 0 {
		return fmt.Errorf("parquet schema mismatch: missing=%v extra=%v", missing, extra)
	}
	return nil
}

func structParquetFieldNames(sample any) map[string]struct{} {
	fields := map[string]struct{}{}
	v := reflect.TypeOf(sample)
	for i := 0; i < v.NumField(); i++ {
		name := parseParquetName(v.Field(i).Tag.Get("parquet"))
		if name != "" {
			fields[name] = struct{}{}
		}
	}
	return fields
}

func parseParquetName(tag string) string {
	for _, part := range strings.Split(tag, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) == 2 && kv[0] == "name" {
			return kv[1]
		}
	}
	return ""
}

func diffKeys(a, b map[string]struct{}) []string {
	var diff []string
	for key := range a {
		if _, ok := b[key]; !ok {
			diff = append(diff, key)
		}
	}
	return diff
}
