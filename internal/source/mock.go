package source

import (
	"context"

	"github.com/wesm/agendaview/internal/event"
)

// Mock serves a fixed sample dataset covering every weekday
// window the dashboard filters exercise.
type Mock struct{}

// Name implements Source.
func (Mock) Name() string { return string(KindMock) }

// Fetch implements Source. It returns a fresh copy each call.
func (Mock) Fetch(context.Context) ([]event.RawRow, error) {
	rows := make([]event.RawRow, len(sampleRows))
	copy(rows, sampleRows)
	return rows, nil
}

var sampleRows = []event.RawRow{
	{ID: "W", Created: "2025-07-12T20:29:56", Activity: "agendadahumano", Source: "whatsapp"},
	{ID: "Kuka", Created: "2025-07-12T20:20:00", Activity: "agendadahumano", Source: "whatsapp"},
	{ID: "Maiane", Created: "2025-07-12T16:08:12", Activity: "agendadoia", Source: "whatsapp"},
	{ID: "Eduarda", Created: "2025-07-12T14:32:04", Activity: "agendadoia", Source: "whatsapp"},
	{ID: "Sirlene", Created: "2025-07-12T14:00:30", Activity: "agendadoia", Source: "whatsapp"},
	{ID: "Rol", Created: "2025-07-12T16:17:42", Activity: "agendadoia", Source: "whatsapp"},
	{ID: "TestIA_Manha_Seg", Created: "2025-07-14T09:30:00", Activity: "agendadoia", Source: "test"},
	{ID: "TestHumano_Noite_Sab", Created: "2025-07-12T20:00:00", Activity: "agendadahumano", Source: "test"},
	{ID: "TestIA_Tarde_Ter", Created: "2025-07-15T14:00:00", Activity: "agendadoia", Source: "test"},
	{ID: "TestHumano_Noite_Dom", Created: "2025-07-13T01:00:00", Activity: "agendadahumano", Source: "test"},
	{ID: "TestIA_Comercial_Qui", Created: "2025-07-17T10:00:00", Activity: "agendadoia", Source: "test"},
	{ID: "TestHumano_ForaComercial_Sex", Created: "2025-07-18T05:00:00", Activity: "agendadahumano", Source: "test"},
	{ID: "TestIA_ForaComercial_Qua", Created: "2025-07-16T19:00:00", Activity: "agendadoia", Source: "test"},
}
