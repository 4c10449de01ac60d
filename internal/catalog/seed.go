package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// Seed - содержимое каталога в формате db.json витрины
type Seed struct {
	Products []SeedProduct `json:"products"`
	Stock    []SeedStock   `json:"stock"`
}

// SeedProduct карточка товара в seed
type SeedProduct struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

// SeedStock остаток товара в seed
type SeedStock struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

// LoadSeed читает seed из JSON файла
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read catalog seed: %w", err)
	}

	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("parse catalog seed %s: %w", path, err)
	}
	return seed, nil
}

const imageBaseURL = "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/"

// DefaultSeed - шесть кроссовок RocketShoes
func DefaultSeed() Seed {
	return Seed{
		Products: []SeedProduct{
			{ID: 1, Title: "Tênis de Caminhada Leve Confortável", Price: 179.9, Image: imageBaseURL + "tenis1.jpg"},
			{ID: 2, Title: "Tênis VR Caminhada Confortável Detalhes Couro Masculino", Price: 139.9, Image: imageBaseURL + "tenis2.jpg"},
			{ID: 3, Title: "Tênis Adidas Duramo Lite 2.0", Price: 219.9, Image: imageBaseURL + "tenis3.jpg"},
			{ID: 4, Title: "Tênis VR Caminhada Confortável Detalhes Couro Masculino", Price: 139.9, Image: imageBaseURL + "tenis2.jpg"},
			{ID: 5, Title: "Tênis VR Caminhada Confortável Detalhes Couro Masculino", Price: 139.9, Image: imageBaseURL + "tenis2.jpg"},
			{ID: 6, Title: "Tênis Adidas Duramo Lite 2.0", Price: 219.9, Image: imageBaseURL + "tenis3.jpg"},
		},
		Stock: []SeedStock{
			{ID: 1, Amount: 3},
			{ID: 2, Amount: 5},
			{ID: 3, Amount: 2},
			{ID: 4, Amount: 1},
			{ID: 5, Amount: 5},
			{ID: 6, Amount: 10},
		},
	}
}
