package service

import "github.com/mmeshcher/orderdesk/internal/model"

var seedProducts = []model.Product{
	{ID: "PET001", Name: "ACUACIDE BOTE 1 LT", Price: 300, Group: "PETS PHARMA"},
	{ID: "PET002", Name: "AD3E 100 ML", Price: 80, Group: "PETS PHARMA"},
	{ID: "PET003", Name: "ALBENDAZOL 10% 1 LT", Price: 400, Group: "PETS PHARMA"},
}

var seedParties = map[model.PartyKind][]model.Party{
	model.PartyClients:      {{ID: 1, Name: "Cliente Mostrador"}},
	model.PartySellers:      {{ID: 1, Name: "Vendedor Principal"}},
	model.PartyDistributors: {{ID: 1, Name: "Pets Pharma"}},
}
