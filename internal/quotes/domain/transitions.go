package domain

import (
	"fmt"

	"agency_backend/platform/apperr"
)

type transitionKey struct {
	from   Status
	actor  Actor
	action Action
}

// transitions is the lifecycle table. A (status, actor, action) triple that is
// not listed is an invalid transition.
var transitions = map[transitionKey]Status{
	{StatusBrouillon, ActorAdmin, ActionMettreEnAttente}: StatusEnAttente,
	{StatusBrouillon, ActorAdmin, ActionValider}:         StatusValide,
	{StatusBrouillon, ActorAdmin, ActionRefuser}:         StatusRefuseAdmin,
	// Admin override for deals closed by phone or in person.
	{StatusBrouillon, ActorAdmin, ActionAccepter}: StatusAccepte,

	{StatusEnAttente, ActorAdmin, ActionValider}:  StatusValide,
	{StatusEnAttente, ActorAdmin, ActionRefuser}:  StatusRefuseAdmin,
	{StatusEnAttente, ActorAdmin, ActionAccepter}: StatusAccepte,

	{StatusValide, ActorAdmin, ActionRefuser}:    StatusRefuseAdmin,
	{StatusValide, ActorAdmin, ActionAccepter}:   StatusAccepte,
	{StatusValide, ActorClient, ActionConsulter}: StatusConsulte,
	{StatusValide, ActorClient, ActionAccepter}:  StatusAccepte,
	{StatusValide, ActorClient, ActionRefuser}:   StatusRefuseClient,
	{StatusValide, ActorSystem, ActionExpirer}:   StatusExpire,

	{StatusConsulte, ActorAdmin, ActionRefuser}:   StatusRefuseAdmin,
	{StatusConsulte, ActorAdmin, ActionAccepter}:  StatusAccepte,
	{StatusConsulte, ActorClient, ActionAccepter}: StatusAccepte,
	{StatusConsulte, ActorClient, ActionRefuser}:  StatusRefuseClient,
	{StatusConsulte, ActorSystem, ActionExpirer}:  StatusExpire,
}

// Next returns the status reached when actor performs action on a quote in
// from, or an InvalidTransition error.
func Next(from Status, actor Actor, action Action) (Status, error) {
	to, ok := transitions[transitionKey{from: from, actor: actor, action: action}]
	if !ok {
		return "", apperr.InvalidTransition(
			fmt.Sprintf("action %s by %s is not allowed on a quote in status %s", action, actor, from),
		).WithDetails(map[string]string{"status": string(from), "action": string(action)})
	}
	return to, nil
}

// Allowed lists the actions actor may perform from status, in a stable order.
// The admin UI uses it to decide which buttons to show.
func Allowed(from Status, actor Actor) []Action {
	order := []Action{ActionMettreEnAttente, ActionValider, ActionConsulter, ActionAccepter, ActionRefuser, ActionExpirer}
	var out []Action
	for _, a := range order {
		if _, ok := transitions[transitionKey{from: from, actor: actor, action: a}]; ok {
			out = append(out, a)
		}
	}
	return out
}
