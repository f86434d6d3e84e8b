package prediction

import (
	"fmt"
	"strings"
)

const systemPrompt = `Anda adalah AI ahli pertanian Indonesia yang menganalisis data komunitas petani untuk memberikan prediksi komoditas yang akurat dan praktis.

PENTING: Respons Anda HARUS dalam format JSON array yang valid. Jangan tambahkan teks lain di luar JSON.

Format respons yang WAJIB:
[
  {
    "name": "Nama Tanaman",
    "suitability": "high|medium|low",
    "estimated_yield": "X-Y ton/ha",
    "description": "Deskripsi detail mengapa tanaman ini cocok berdasarkan data komunitas",
    "icon": "🌱",
    "district": "nama kecamatan",
    "season": "Musim Hujan",
    "accuracy_percentage": 85,
    "based_on_reports": 5
  }
]

Berikan 3-4 prediksi tanaman yang paling relevan untuk kondisi saat ini. Fokus pada tanaman yang realistis untuk petani Indonesia.`

const seasonalContext = `KONDISI SAAT INI:
- Musim: Februari 2025 (Musim Hujan)
- Curah hujan: Tinggi
- Suhu: 24-28°C
- Wilayah: Jawa Barat, Indonesia`

func userPrompt(s Summary) string {
	crops := make([]string, len(s.PopularCrops))
	for i, c := range s.PopularCrops {
		crops[i] = fmt.Sprintf("%s (%d laporan)", c.Name, c.Count)
	}

	pests := "Tidak ada laporan"
	if len(s.PestIssues) > 0 {
		pests = strings.Join(s.PestIssues, ", ")
	}

	var b strings.Builder
	b.WriteString("Analisis data pertanian komunitas berikut dan berikan prediksi komoditas dalam format JSON:\n\n")
	b.WriteString(seasonalContext)
	fmt.Fprintf(&b, "\n\nDATA KOMUNITAS (%d laporan):\n", s.Total)
	fmt.Fprintf(&b, "- Kecamatan: %s\n", strings.Join(s.Districts, ", "))
	fmt.Fprintf(&b, "- Tanaman populer: %s\n", strings.Join(crops, ", "))
	fmt.Fprintf(&b, "- Jenis tanah: %s\n", strings.Join(s.SoilTypes, ", "))
	fmt.Fprintf(&b, "- Kondisi lahan: %s\n", strings.Join(s.LandConditions, ", "))
	fmt.Fprintf(&b, "- Rata-rata hasil panen: %d kg\n", s.AverageYield)
	fmt.Fprintf(&b, "- Kondisi panen terakhir: %s\n", strings.Join(s.HarvestConditions, ", "))
	fmt.Fprintf(&b, "- Masalah hama: %s\n", pests)
	fmt.Fprintf(&b, "- Kondisi cuaca: %s\n\n", strings.Join(s.WeatherConditions, ", "))
	b.WriteString("Berikan prediksi tanaman yang cocok untuk musim hujan dengan mempertimbangkan data komunitas di atas. Pastikan prediksi realistis dan praktis untuk petani Indonesia.")
	return b.String()
}
