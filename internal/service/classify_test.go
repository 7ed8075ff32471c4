package service

import (
	"coinwatch/internal/dto"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	type args struct {
		price      float64
		threshold  float64
		isInvested bool
	}
	tests := []struct {
		name      string
		args      args
		want      dto.Classification
		wantColor dto.ActuatorColor
	}{
		{
			name:      "price above threshold",
			args:      args{price: 105, threshold: 100},
			want:      dto.ClassificationAbove,
			wantColor: dto.ActuatorGreen,
		},
		{
			name:      "price below threshold",
			args:      args{price: 95, threshold: 100},
			want:      dto.ClassificationBelow,
			wantColor: dto.ActuatorRed,
		},
		{
			name:      "price equal to threshold is neutral",
			args:      args{price: 100, threshold: 100},
			want:      dto.ClassificationNeutral,
			wantColor: dto.ActuatorOff,
		},
		{
			name:      "invested wins over price far below threshold",
			args:      args{price: 10, threshold: 100, isInvested: true},
			want:      dto.ClassificationInvested,
			wantColor: dto.ActuatorBlue,
		},
		{
			name:      "invested wins over price above threshold",
			args:      args{price: 250, threshold: 100, isInvested: true},
			want:      dto.ClassificationInvested,
			wantColor: dto.ActuatorBlue,
		},
		{
			name:      "tiny margin above still classifies above",
			args:      args{price: 100.0001, threshold: 100},
			want:      dto.ClassificationAbove,
			wantColor: dto.ActuatorGreen,
		},
		{
			name:      "zero threshold with positive price",
			args:      args{price: 0.000001, threshold: 0},
			want:      dto.ClassificationAbove,
			wantColor: dto.ActuatorGreen,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.args.price, tt.args.threshold, tt.args.isInvested)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantColor, got.ActuatorColor())
		})
	}
}
