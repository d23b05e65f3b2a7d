// Package glue converts between mojap metadata and AWS Glue catalog tables.
//
// Column types are translated to and from the hive types used by Glue.  Partition
// columns become the table's partition keys, and the file format determines the
// storage descriptor's serialization library and input/output formats.
package glue

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/pjxcog/mojap-metadata/metadata"
	"github.com/pkg/errors"
)

// DefaultTableType is the type of tables created when Options do not name one
const DefaultTableType = "EXTERNAL_TABLE"

// Options for generating glue tables
type Options struct {
	DatabaseName string // Glue database the table belongs to
	Location     string // S3 location of the table's data
	TableType    string // Defaults to EXTERNAL_TABLE
}

type storage struct {
	input       string
	output      string
	serde       string
	serdeParams map[string]string
	tableParams map[string]string
}

const (
	textInput   = "org.apache.hadoop.mapred.TextInputFormat"
	textOutput  = "org.apache.hadoop.hive.ql.io.HiveIgnoreKeyTextOutputFormat"
	lazySerde   = "org.apache.hadoop.hive.serde2.lazy.LazySimpleSerDe"
	jsonSerde   = "org.openx.data.jsonserde.JsonSerDe"
	parqInput   = "org.apache.hadoop.hive.ql.io.parquet.MapredParquetInputFormat"
	parqOutput  = "org.apache.hadoop.hive.ql.io.parquet.MapredParquetOutputFormat"
	parqSerde   = "org.apache.hadoop.hive.ql.io.parquet.serde.ParquetHiveSerDe"
	formatParam = "classification"
)

var storageFormats = map[string]storage{
	"csv": {
		input:       textInput,
		output:      textOutput,
		serde:       lazySerde,
		serdeParams: map[string]string{"field.delim": ",", "serialization.format": ","},
		tableParams: map[string]string{"skip.header.line.count": "1"},
	},
	"json": {
		input:       textInput,
		output:      textOutput,
		serde:       jsonSerde,
		serdeParams: map[string]string{"paths": ""},
	},
	"parquet": {
		input:       parqInput,
		output:      parqOutput,
		serde:       parqSerde,
		serdeParams: map[string]string{"serialization.format": "1"},
	},
}

// GenerateFromMeta creates the definition of a glue table from metadata.  Partition
// columns become partition keys, in partition order.
func GenerateFromMeta(m *metadata.Metadata, opts Options) (*types.TableInput, error) {
	format := strings.ToLower(m.FileFormat)
	st, ok := storageFormats[format]
	if !ok {
		return nil, errors.Errorf("glue tables cannot be created for file format %q of %s", m.FileFormat, m.Name)
	}

	tableType := opts.TableType
	if tableType == "" {
		tableType = DefaultTableType
	}

	columns := make([]types.Column, 0, len(m.Columns))
	partitions := make([]types.Column, len(m.Partitions))
	for _, col := range m.Columns {
		gc, err := glueColumn(col)
		if err != nil {
			return nil, errors.Wrapf(err, "column %s of %s", col.Name, m.Name)
		}
		if i := indexOf(m.Partitions, col.Name); i >= 0 {
			partitions[i] = gc
			continue
		}
		columns = append(columns, gc)
	}
	for i, p := range m.Partitions {
		if partitions[i].Name == nil {
			return nil, errors.Wrapf(metadata.ErrColumnNotFound, "partition %s of %s", p, m.Name)
		}
	}

	params := map[string]string{formatParam: format}
	for k, v := range st.tableParams {
		params[k] = v
	}

	input := &types.TableInput{
		Name:          aws.String(m.Name),
		TableType:     aws.String(tableType),
		Parameters:    params,
		PartitionKeys: partitions,
		StorageDescriptor: &types.StorageDescriptor{
			Columns:      columns,
			InputFormat:  aws.String(st.input),
			OutputFormat: aws.String(st.output),
			SerdeInfo: &types.SerDeInfo{
				SerializationLibrary: aws.String(st.serde),
				Parameters:           copyParams(st.serdeParams),
			},
		},
	}
	if m.Description != "" {
		input.Description = aws.String(m.Description)
	}
	if opts.Location != "" {
		input.StorageDescriptor.Location = aws.String(opts.Location)
	}
	return input, nil
}

func glueColumn(col metadata.Column) (types.Column, error) {
	typ := col.Type
	if typ == "" {
		var ok bool
		if typ, ok = metadata.DefaultTypes[col.TypeCategory]; !ok {
			return types.Column{}, errors.Errorf("type category %q has no default type", col.TypeCategory)
		}
	}

	hive, err := ConvertType(typ)
	if err != nil {
		return types.Column{}, err
	}

	gc := types.Column{
		Name: aws.String(col.Name),
		Type: aws.String(hive),
	}
	if col.Description != "" {
		gc.Comment = aws.String(col.Description)
	}
	return gc, nil
}

// GenerateToMeta creates metadata from a glue table.  Partition keys are appended
// to the columns.
func GenerateToMeta(t *types.Table) (*metadata.Metadata, error) {
	m := metadata.New(aws.ToString(t.Name))
	m.Description = aws.ToString(t.Description)
	m.FileFormat = fileFormat(t)

	var cols []types.Column
	if t.StorageDescriptor != nil {
		cols = append(cols, t.StorageDescriptor.Columns...)
	}
	cols = append(cols, t.PartitionKeys...)

	for _, gc := range cols {
		typ, err := ReverseType(aws.ToString(gc.Type))
		if err != nil {
			return nil, errors.Wrapf(err, "column %s of %s", aws.ToString(gc.Name), m.Name)
		}
		m.Columns = append(m.Columns, metadata.Column{
			Name:        aws.ToString(gc.Name),
			Type:        typ,
			Description: aws.ToString(gc.Comment),
		})
	}
	for _, p := range t.PartitionKeys {
		m.Partitions = append(m.Partitions, aws.ToString(p.Name))
	}
	return m, nil
}

// fileFormat prefers the table's classification, and falls back to
// recognizing the serialization library
func fileFormat(t *types.Table) string {
	if f, ok := t.Parameters[formatParam]; ok {
		return f
	}
	if t.StorageDescriptor == nil || t.StorageDescriptor.SerdeInfo == nil {
		return ""
	}
	serde := aws.ToString(t.StorageDescriptor.SerdeInfo.SerializationLibrary)
	for name, st := range storageFormats {
		if st.serde == serde {
			return name
		}
	}
	return ""
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func copyParams(p map[string]string) map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
