package bot

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"iter"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"meal-planner/internal/config"
	"meal-planner/internal/model"
	"meal-planner/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageCategory
	stageName
	stageIngredients
	stageShowCategory
)

const (
	btnCancelDialog   = "⏪ Cancel"
	menuLabelAdd      = "➕ Add meal"
	menuLabelPlan     = "🗓 Plan week"
	menuLabelListPlan = "📋 Weekly plan"
	menuLabelSave     = "🛒 Shopping list"
	menuLabelToday    = "🍽 Today"
	menuLabelHelp     = "ℹ️ Help"

	shoppingListFile = "shopping_list.txt"

	msgWrongCategory = "Wrong meal category! Choose from: breakfast, lunch, dinner."
	msgWrongFormat   = "Wrong format. Use letters only!"
	msgMealNotFound  = "This meal doesn’t exist. Choose a meal from the list above."
	msgNoPlan        = "Unable to save. Plan your meals first."

	msgPlanInProgress = "A plan is being built. Answer the question above or send /cancel first."
)

type conversationState struct {
	stage conversationStage
	input service.MealInput
}

// Bot serves the meal planner to its owner over Telegram.
type Bot struct {
	api           *tgbotapi.BotAPI
	catalog       *service.CatalogService
	plans         *service.PlanService
	shopping      *service.ShoppingService
	menu          *service.MenuService
	ownerID       int64
	conversations map[int64]*conversationState
	sessions      map[int64]*planSession
	mu            sync.Mutex
}

func New(token string, catalog *service.CatalogService, plans *service.PlanService, shopping *service.ShoppingService, menu *service.MenuService, cfg config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:           api,
		catalog:       catalog,
		plans:         plans,
		shopping:      shopping,
		menu:          menu,
		ownerID:       cfg.TelegramAllowUserID,
		conversations: make(map[int64]*conversationState),
		sessions:      make(map[int64]*planSession),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		msg := update.Message
		if msg == nil || msg.Chat == nil || !msg.Chat.IsPrivate() || msg.From == nil {
			continue
		}
		if !b.allowed(msg.From.ID) {
			log.Printf("[info] ignore message from %d", msg.From.ID)
			continue
		}
		if err := b.handleMessage(ctx, msg); err != nil {
			log.Printf("handle message: %v", err)
		}
	}

	b.cancelAllSessions()
	return nil
}

func (b *Bot) allowed(userID int64) bool {
	return b.ownerID != 0 && userID == b.ownerID
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		return b.cancelDialog(msg)
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if session := b.getSession(msg.From.ID); session != nil {
		if !session.answer(msg.Text) {
			return b.sendWithReplyMarkup(msg.Chat.ID, "⏳ Still working on your previous answer.", nil)
		}
		return nil
	}

	if b.hasConversation(msg.From.ID) {
		log.Printf("[info] conversation step %d from %d", b.getConversation(msg.From.ID).stage, msg.From.ID)
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Send /add to add a meal or /help for the list of commands.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.handleHelp(msg)
	case "add":
		return b.startAddConversation(msg)
	case "show":
		return b.handleShow(ctx, msg)
	case "plan":
		return b.startPlan(ctx, msg)
	case "listplan":
		return b.handleListPlan(ctx, msg)
	case "save":
		return b.handleSave(ctx, msg)
	case "today":
		return b.handleToday(ctx, msg)
	case "cancel":
		return b.cancelDialog(msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. Take a look at /help.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf(
		"👋 Hi, %s!\n<b>I keep your meals and plan the week for you.</b>\n\nCommands:\n"+
			"• /add — add a meal\n"+
			"• /show &lt;category&gt; — list breakfast, lunch or dinner meals\n"+
			"• /plan — plan the whole week\n"+
			"• /listplan — show the weekly plan\n"+
			"• /save — get the shopping list as a file\n"+
			"• /today — today's menu\n"+
			"• /help — hints\n"+
			"• /cancel — cancel the current input",
		escape(name),
	)

	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Hints</b>\n" +
		"• /add — add a meal step by step: category, name, ingredients separated by commas\n" +
		"• /show &lt;category&gt; — meals of one category (for example, /show lunch)\n" +
		"• /plan — pick a breakfast, lunch and dinner for every day. The new plan replaces the old one\n" +
		"• /listplan — show the stored plan\n" +
		"• /save — send the shopping list for the planned week\n" +
		"• /today — what is planned for today\n" +
		"• /cancel — stop adding a meal or planning the week\n" +
		"Names and ingredients may contain letters and spaces only."
	return b.sendText(msg.Chat.ID, text)
}

// canStartConversation is false while a plan session owns the user's plain-text replies.
func (b *Bot) canStartConversation(userID int64) bool {
	return b.getSession(userID) == nil
}

func (b *Bot) startAddConversation(msg *tgbotapi.Message) error {
	if !b.canStartConversation(msg.From.ID) {
		return b.sendWithReplyMarkup(msg.Chat.ID, msgPlanInProgress, nil)
	}
	log.Printf("[info] start add meal conversation user=%d", msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageCategory})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 Which meal do you want to add (breakfast, lunch, dinner)?", categoryKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageCategory:
		category, err := service.ParseCategory(text)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, msgWrongCategory, categoryKeyboard())
		}
		state.input.Category = category.String()
		state.stage = stageName
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Input the meal's name:", cancelKeyboard())
	case stageName:
		if err := service.ValidateName(text); err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, msgWrongFormat, cancelKeyboard())
		}
		state.input.Name = text
		state.stage = stageIngredients
		return b.sendWithReplyMarkup(msg.Chat.ID, "🧺 Input the ingredients separated by commas:", cancelKeyboard())
	case stageIngredients:
		ingredients, err := service.SplitIngredients(text)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, msgWrongFormat, cancelKeyboard())
		}
		state.input.Ingredients = ingredients
		err = b.finishMealCreation(ctx, msg.Chat.ID, state.input)
		b.clearConversation(msg.From.ID)
		return err
	case stageShowCategory:
		category, err := service.ParseCategory(text)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, msgWrongCategory, categoryKeyboard())
		}
		b.clearConversation(msg.From.ID)
		return b.sendMeals(ctx, msg.Chat.ID, category)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "The dialog was reset. Try again with /add.")
	}
}

func (b *Bot) finishMealCreation(ctx context.Context, chatID int64, input service.MealInput) error {
	meal, err := b.catalog.Add(ctx, input)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Failed to save the meal: %s", escape(err.Error())))
	}

	log.Printf("[info] meal added id=%d category=%s", meal.ID, meal.Category)

	var summary strings.Builder
	summary.WriteString("✅ <b>The meal has been added!</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", meal.ID))
	summary.WriteString(fmt.Sprintf("• <b>Category:</b> %s\n", meal.Category))
	summary.WriteString(fmt.Sprintf("• <b>Name:</b> %s\n", escape(meal.Name)))
	summary.WriteString(fmt.Sprintf("• <b>Ingredients:</b> %s", escape(strings.Join(meal.IngredientNames(), ", "))))
	return b.sendText(chatID, summary.String())
}

func (b *Bot) handleShow(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(strings.ToLower(msg.CommandArguments()))
	if args == "" {
		if !b.canStartConversation(msg.From.ID) {
			return b.sendWithReplyMarkup(msg.Chat.ID, msgPlanInProgress, nil)
		}
		b.setConversation(msg.From.ID, &conversationState{stage: stageShowCategory})
		return b.sendWithReplyMarkup(msg.Chat.ID, "Which category do you want to print (breakfast, lunch, dinner)?", categoryKeyboard())
	}
	category, err := service.ParseCategory(args)
	if err != nil {
		return b.sendText(msg.Chat.ID, msgWrongCategory)
	}
	return b.sendMeals(ctx, msg.Chat.ID, category)
}

func (b *Bot) sendMeals(ctx context.Context, chatID int64, category model.Category) error {
	meals, err := b.catalog.ListByCategory(ctx, category)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Failed to load meals: %s", escape(err.Error())))
	}
	return b.sendText(chatID, formatMeals(category, meals))
}

func (b *Bot) handleListPlan(ctx context.Context, msg *tgbotapi.Message) error {
	text, err := renderPlan(b.plans.Lines(ctx))
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Failed to load the plan: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleSave(ctx context.Context, msg *tgbotapi.Message) error {
	list, err := b.shopping.List(ctx)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Failed to build the shopping list: %s", escape(err.Error())))
	}
	if list.Empty() {
		return b.sendText(msg.Chat.ID, msgNoPlan)
	}

	var buf bytes.Buffer
	if _, err := list.WriteTo(&buf); err != nil {
		return err
	}

	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileBytes{Name: shoppingListFile, Bytes: buf.Bytes()})
	doc.Caption = fmt.Sprintf("🛒 %d ingredients for the week", len(list.Items))
	doc.ReplyMarkup = mainMenuKeyboard()
	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("send shopping list: %w", err)
	}
	log.Printf("[info] shopping list sent items=%d", len(list.Items))
	return nil
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message) error {
	text, err := b.menu.DailyMenu(ctx, time.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Failed to build the menu: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

// SendDailyMenu sends today's menu to the owner. The owner's private chat ID is their user ID.
func (b *Bot) SendDailyMenu(ctx context.Context) error {
	if b.ownerID == 0 {
		return nil
	}
	text, err := b.menu.DailyMenu(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("build daily menu: %w", err)
	}
	if err := b.sendText(b.ownerID, text); err != nil {
		return fmt.Errorf("send daily menu to %d: %w", b.ownerID, err)
	}
	return nil
}

func (b *Bot) cancelDialog(msg *tgbotapi.Message) error {
	b.clearConversation(msg.From.ID)
	if session := b.getSession(msg.From.ID); session != nil {
		// the build goroutine reports the cancellation itself
		session.stop(errPlanCancelled)
		return nil
	}
	return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelAdd:
		return true, b.startAddConversation(msg)
	case menuLabelPlan:
		return true, b.startPlan(ctx, msg)
	case menuLabelListPlan:
		return true, b.handleListPlan(ctx, msg)
	case menuLabelSave:
		return true, b.handleSave(ctx, msg)
	case menuLabelToday:
		return true, b.handleToday(ctx, msg)
	case menuLabelHelp:
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelAdd),
			tgbotapi.NewKeyboardButton(menuLabelPlan),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelListPlan),
			tgbotapi.NewKeyboardButton(menuLabelSave),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func categoryKeyboard() tgbotapi.ReplyKeyboardMarkup {
	row := make([]tgbotapi.KeyboardButton, 0, len(model.Categories()))
	for _, category := range model.Categories() {
		row = append(row, tgbotapi.NewKeyboardButton(category.String()))
	}
	kb := tgbotapi.NewReplyKeyboard(
		row,
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// candidateKeyboard lays the offered meals out two per row, followed by the cancel button.
func candidateKeyboard(meals []model.Meal) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for chunk := range slices.Chunk(meals, 2) {
		row := make([]tgbotapi.KeyboardButton, 0, len(chunk))
		for _, meal := range chunk {
			row = append(row, tgbotapi.NewKeyboardButton(meal.Name))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)))

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "cancel"
}

func escape(s string) string {
	return html.EscapeString(s)
}

func formatMeals(category model.Category, meals []model.Meal) string {
	if len(meals) == 0 {
		return "No meals found."
	}
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📂 <b>%s</b>\n", category.Title()))
	for _, meal := range meals {
		builder.WriteString(fmt.Sprintf("\n<b>%s</b>\n🧺 %s\n", escape(meal.Name), escape(strings.Join(meal.IngredientNames(), ", "))))
	}
	return strings.TrimSpace(builder.String())
}

// renderPlan turns plan lines into an HTML message with the day names in bold.
func renderPlan(lines iter.Seq2[string, error]) (string, error) {
	var builder strings.Builder
	for line, err := range lines {
		if err != nil {
			return "", err
		}
		if slices.Contains(model.Days(), model.Day(line)) {
			line = "<b>" + line + "</b>"
		} else {
			line = escape(line)
		}
		builder.WriteString(line)
		builder.WriteByte('\n')
	}
	text := strings.TrimSpace(builder.String())
	if text == service.NoPlanLine {
		return text + ". Send /plan to build the week.", nil
	}
	return text, nil
}
