package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestALUControl(t *testing.T) {
	tests := []struct {
		name   string
		class  ALUOpClass
		funct3 uint32
		funct7 uint32
		aluSrc bool
		want   ALUOperation
		ok     bool
	}{
		{"address ignores funct", ALUOpAddress, 7, 0x20, true, ALUAdd, true},
		{"compare ignores funct3", ALUOpCompare, 5, 0, false, ALUSub, true},
		{"add", ALUOpArith, 0, 0, false, ALUAdd, true},
		{"sub", ALUOpArith, 0, 0x20, false, ALUSub, true},
		{"addi with funct7-like immediate bits", ALUOpArith, 0, 0x20, true, ALUAdd, true},
		{"addi", ALUOpArith, 0, 0, true, ALUAdd, true},
		{"and", ALUOpArith, 7, 0, false, ALUAnd, true},
		{"andi", ALUOpArith, 7, 0x7F, true, ALUAnd, true},
		{"or", ALUOpArith, 6, 0, false, ALUOr, true},
		{"ori", ALUOpArith, 6, 0, true, ALUOr, true},
		{"xor falls back", ALUOpArith, 4, 0, false, ALUAdd, false},
		{"sll falls back", ALUOpArith, 1, 0, true, ALUAdd, false},
		{"unknown class falls back", ALUOpClass(3), 0, 0, false, ALUAdd, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ALUControl(tt.class, tt.funct3, tt.funct7, tt.aluSrc)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestALUApply(t *testing.T) {
	assert.Equal(t, int32(0x0F), ALUAnd.Apply(0xFF, 0x0F))
	assert.Equal(t, int32(0xFF), ALUOr.Apply(0xF0, 0x0F))
	assert.Equal(t, int32(17), ALUAdd.Apply(10, 7))
	assert.Equal(t, int32(3), ALUSub.Apply(10, 7))
	assert.Equal(t, int32(-3), ALUSub.Apply(7, 10))
	assert.Equal(t, int32(math.MinInt32), ALUAdd.Apply(math.MaxInt32, 1))
	assert.Equal(t, int32(math.MaxInt32), ALUSub.Apply(math.MinInt32, 1))
}

func TestALUOperationString(t *testing.T) {
	assert.Equal(t, "sub", ALUSub.String())
	assert.Equal(t, "alu(1111)", ALUOperation(0xF).String())
}
