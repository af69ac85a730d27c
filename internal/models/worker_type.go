package models

import "strings"

// WorkerType - тип работника. Шесть значений являются типами происхождения
// (Worker.Type), остальные допустимы только как присутствие в плане.
type WorkerType string

// Типы происхождения
const (
	TypePermanentJour    WorkerType = "PERMANENT_JOUR"
	TypePermanentSoir    WorkerType = "PERMANENT_SOIR"
	TypeOccasionelDuJour WorkerType = "OCCASIONEL_DU_JOUR"
	TypeOccasionelSoir   WorkerType = "OCCASIONEL_SOIR"
	TypeMobiliteDuJour   WorkerType = "MOBILITE_DU_JOUR"
	TypeMobiliteDuSoir   WorkerType = "MOBILITE_DU_SOIR"
)

// Типы, допустимые только для присутствия
const (
	TypeJour              WorkerType = "JOUR"
	TypeSoir              WorkerType = "SOIR"
	TypeAbsent            WorkerType = "ABSENT"
	TypeVacances          WorkerType = "VACANCES"
	TypeLiberationExterne WorkerType = "LIBERATION_EXTERNE"
	TypeInvalidite        WorkerType = "INVALIDITE"
	TypePreretraite       WorkerType = "PRERETRAITE"
	TypeCongeParental     WorkerType = "CONGE_PARENTAL"
)

var originTypes = []WorkerType{
	TypePermanentJour,
	TypePermanentSoir,
	TypeOccasionelDuJour,
	TypeOccasionelSoir,
	TypeMobiliteDuJour,
	TypeMobiliteDuSoir,
}

var presenceOnlyTypes = []WorkerType{
	TypeJour,
	TypeSoir,
	TypeAbsent,
	TypeVacances,
	TypeLiberationExterne,
	TypeInvalidite,
	TypePreretraite,
	TypeCongeParental,
}

var typeLabels = map[WorkerType]string{
	TypePermanentJour:     "Permanent jour",
	TypePermanentSoir:     "Permanent soir",
	TypeOccasionelDuJour:  "Occasionel du jour",
	TypeOccasionelSoir:    "Occasionel du soir",
	TypeMobiliteDuJour:    "Mobilité du jour",
	TypeMobiliteDuSoir:    "Mobilité du soir",
	TypeJour:              "Jour",
	TypeSoir:              "Soir",
	TypeAbsent:            "Absent",
	TypeVacances:          "Vacances",
	TypeLiberationExterne: "Libération externe",
	TypeInvalidite:        "Invalidité",
	TypePreretraite:       "Préretraite",
	TypeCongeParental:     "Congé parental",
}

// OriginTypes возвращает копию списка типов происхождения
func OriginTypes() []WorkerType {
	return append([]WorkerType(nil), originTypes...)
}

// AllWorkerTypes возвращает все допустимые значения типа
func AllWorkerTypes() []WorkerType {
	all := make([]WorkerType, 0, len(originTypes)+len(presenceOnlyTypes))
	all = append(all, originTypes...)
	return append(all, presenceOnlyTypes...)
}

// IsValid проверяет, входит ли тип в перечисление
func (t WorkerType) IsValid() bool {
	_, ok := typeLabels[t]
	return ok
}

// IsOrigin проверяет, может ли тип быть записан в Worker.Type
func (t WorkerType) IsOrigin() bool {
	for _, o := range originTypes {
		if o == t {
			return true
		}
	}
	return false
}

// Label возвращает отображаемое имя типа
func (t WorkerType) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return string(t)
}

// PresenceGroup - коробка присутствия на экране распределения.
type PresenceGroup struct {
	Label string
	Types []WorkerType
}

// Contains проверяет, попадает ли тип в группу
func (g PresenceGroup) Contains(t WorkerType) bool {
	for _, gt := range g.Types {
		if gt == t {
			return true
		}
	}
	return false
}

// MainPresenceGroups - шесть основных групп, фильтруемых поиском.
var MainPresenceGroups = []PresenceGroup{
	{Label: "Permanent jour", Types: []WorkerType{TypePermanentJour, TypeJour}},
	{Label: "Permanent soir", Types: []WorkerType{TypePermanentSoir, TypeSoir}},
	{Label: "Occasionel du jour", Types: []WorkerType{TypeOccasionelDuJour}},
	{Label: "Occasionel du soir", Types: []WorkerType{TypeOccasionelSoir}},
	{Label: "Mobilité du jour", Types: []WorkerType{TypeMobiliteDuJour}},
	{Label: "Mobilité du soir", Types: []WorkerType{TypeMobiliteDuSoir}},
}

// AttendancePresenceGroups - группы отсутствия, всегда видимые.
var AttendancePresenceGroups = []PresenceGroup{
	{Label: "Absent", Types: []WorkerType{TypeAbsent}},
	{Label: "Vacances", Types: []WorkerType{TypeVacances}},
	{Label: "Libération externe", Types: []WorkerType{TypeLiberationExterne}},
	{Label: "Invalidité", Types: []WorkerType{TypeInvalidite}},
	{Label: "Préretraite", Types: []WorkerType{TypePreretraite}},
	{Label: "Congé parental", Types: []WorkerType{TypeCongeParental}},
}

// VisibleMainTypes возвращает типы основных групп, чьё имя содержит filter.
// Пустой фильтр оставляет все шесть групп.
func VisibleMainTypes(filter string) map[WorkerType]bool {
	q := strings.ToLower(strings.TrimSpace(filter))
	visible := make(map[WorkerType]bool)
	for _, g := range MainPresenceGroups {
		if q != "" && !strings.Contains(strings.ToLower(g.Label), q) {
			continue
		}
		for _, t := range g.Types {
			visible[t] = true
		}
	}
	return visible
}
