package constants

import "strings"

// Field is one entry of the certidão schema. Key is what the model is asked
// to emit, Column is the name used in output rows, files and tables.
type Field struct {
	Key         string
	Column      string
	Description string
}

// Fields is the single source of truth for the structuring prompt, the JSON
// schema, the output row and the store columns. Order is the column order.
var Fields = []Field{
	{Key: "Matricula", Column: "Matricula", Description: "Registry/Matricula Number"},
	{Key: "Proprietario", Column: "Proprietario", Description: "Owner name"},
	{Key: "CPF_Proprietario", Column: "CPF", Description: "Owner CPF"},
	{Key: "Endereco_Imovel", Column: "Endereco_Imovel", Description: "Property address - street, number, neighborhood"},
	{Key: "Municipio", Column: "Municipio", Description: "City"},
	{Key: "Estado", Column: "Estado", Description: "State"},
	{Key: "Area_Terreno", Column: "Area_Terreno", Description: "Land area in m²"},
	{Key: "Registro_Anterior", Column: "Registro_Anterior", Description: "Previous registry number if mentioned"},
	{Key: "Data_Registro", Column: "Data_Registro", Description: "Registration date"},
	{Key: "Cartorio", Column: "Cartorio", Description: "Registry office name and location"},
	{Key: "Livro", Column: "Livro", Description: "Book number"},
	{Key: "Folha", Column: "Folha", Description: "Page number"},
	{Key: "Observacoes", Column: "Observacoes", Description: "Any important notes or remarks"},
}

// Columns returns the output column names in order.
func Columns() []string {
	out := make([]string, len(Fields))
	for i, f := range Fields {
		out[i] = f.Column
	}
	return out
}

// ColumnIndex returns the position of an output column, or -1.
func ColumnIndex(column string) int {
	for i, f := range Fields {
		if f.Column == column {
			return i
		}
	}
	return -1
}

// StorageColumn is the SQL column name for an output column.
func StorageColumn(column string) string {
	return strings.ToLower(column)
}
